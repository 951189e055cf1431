package marker

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"os"
)

// Marker records which remote artwork an image was rewritten from. Its
// presence inside the image is the sole idempotence signal: if the
// embedded file path matches the currently selected candidate, the
// image is already up to date.
type Marker struct {
	FilePath string `json:"file_path"`
	ISO6391  string `json:"iso_639_1"`
	ISO31661 string `json:"iso_3166_1"`
}

const pngKeyword = "sonarr_metadata_marker"

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Embed returns raw with m embedded in the image's own metadata: a
// tEXt chunk for PNG, a comment segment for JPEG. Unsupported or
// malformed containers pass through unmodified.
func Embed(raw []byte, m Marker) []byte {
	payload, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	switch {
	case bytes.HasPrefix(raw, pngSignature):
		return embedPNG(raw, payload)
	case isJPEG(raw):
		return embedJPEG(raw, payload)
	default:
		return raw
	}
}

// Read returns the marker embedded in the image at path, or nil when
// the file is absent, corrupt, or carries no marker. Marker absence is
// the normal state for a never-processed file, never an error.
func Read(path string) *Marker {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return Decode(data)
}

// Decode extracts a marker from raw image bytes, or nil.
func Decode(data []byte) *Marker {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return decodePNG(data)
	case isJPEG(data):
		return decodeJPEG(data)
	default:
		return nil
	}
}

func parseMarker(payload []byte) *Marker {
	var m Marker
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil
	}
	if m.FilePath == "" {
		return nil
	}
	return &m
}

// embedPNG inserts a tEXt chunk after IHDR, dropping any marker chunk
// from an earlier rewrite.
func embedPNG(raw, payload []byte) []byte {
	chunk := pngTextChunk(payload)

	var out bytes.Buffer
	out.Write(pngSignature)
	pos := len(pngSignature)
	inserted := false
	for pos+8 <= len(raw) {
		length := int(binary.BigEndian.Uint32(raw[pos : pos+4]))
		end := pos + 12 + length
		if end > len(raw) {
			return raw
		}
		typ := string(raw[pos+4 : pos+8])
		data := raw[pos+8 : pos+8+length]
		if typ == "tEXt" && isMarkerText(data) {
			pos = end
			continue
		}
		out.Write(raw[pos:end])
		if typ == "IHDR" && !inserted {
			out.Write(chunk)
			inserted = true
		}
		pos = end
	}
	if !inserted {
		return raw
	}
	return out.Bytes()
}

func pngTextChunk(payload []byte) []byte {
	data := make([]byte, 0, len(pngKeyword)+1+len(payload))
	data = append(data, pngKeyword...)
	data = append(data, 0)
	data = append(data, payload...)

	chunk := make([]byte, 0, 12+len(data))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)))
	chunk = append(chunk, "tEXt"...)
	chunk = append(chunk, data...)
	crc := crc32.NewIEEE()
	crc.Write(chunk[4:])
	return binary.BigEndian.AppendUint32(chunk, crc.Sum32())
}

func isMarkerText(data []byte) bool {
	keyword, _, found := bytes.Cut(data, []byte{0})
	return found && string(keyword) == pngKeyword
}

func decodePNG(data []byte) *Marker {
	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		end := pos + 12 + length
		if end > len(data) {
			return nil
		}
		if string(data[pos+4:pos+8]) == "tEXt" {
			keyword, text, found := bytes.Cut(data[pos+8:pos+8+length], []byte{0})
			if found && string(keyword) == pngKeyword {
				return parseMarker(text)
			}
		}
		pos = end
	}
	return nil
}

func isJPEG(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8
}

// embedJPEG inserts a comment segment right after SOI, dropping marker
// comments left by an earlier rewrite.
func embedJPEG(raw, payload []byte) []byte {
	if len(payload)+2 > 0xffff {
		return raw
	}
	var out bytes.Buffer
	out.Write(raw[:2])
	out.WriteByte(0xff)
	out.WriteByte(0xfe)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(payload)+2))
	out.Write(lenBuf[:])
	out.Write(payload)

	pos := 2
	for pos+4 <= len(raw) {
		if raw[pos] != 0xff {
			break
		}
		seg := raw[pos+1]
		// Start of scan: entropy-coded data follows, copy verbatim.
		if seg == 0xda {
			break
		}
		length := int(binary.BigEndian.Uint16(raw[pos+2 : pos+4]))
		end := pos + 2 + length
		if length < 2 || end > len(raw) {
			break
		}
		if seg == 0xfe && parseMarker(stripCommentPrefix(raw[pos+4:end])) != nil {
			pos = end
			continue
		}
		out.Write(raw[pos:end])
		pos = end
	}
	out.Write(raw[pos:])
	return out.Bytes()
}

func decodeJPEG(data []byte) *Marker {
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xff {
			return nil
		}
		seg := data[pos+1]
		if seg == 0xda {
			return nil
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		end := pos + 2 + length
		if length < 2 || end > len(data) {
			return nil
		}
		if seg == 0xfe {
			if m := parseMarker(stripCommentPrefix(data[pos+4 : end])); m != nil {
				return m
			}
		}
		pos = end
	}
	return nil
}

// stripCommentPrefix drops the 8-byte encoding prefix some writers put
// in front of comment text.
func stripCommentPrefix(data []byte) []byte {
	if bytes.HasPrefix(data, []byte("ASCII\x00\x00\x00")) || bytes.HasPrefix(data, []byte("UNICODE\x00")) {
		return data[8:]
	}
	return data
}
