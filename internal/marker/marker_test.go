package marker

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var testMarker = Marker{
	FilePath: "/abc123.jpg",
	ISO6391:  "zh",
	ISO31661: "CN",
}

func TestPNGRoundTrip(t *testing.T) {
	raw := testPNG(t)
	embedded := Embed(raw, testMarker)
	if bytes.Equal(raw, embedded) {
		t.Fatal("embed did not modify PNG")
	}

	// The image must still decode after embedding.
	if _, err := png.Decode(bytes.NewReader(embedded)); err != nil {
		t.Fatalf("embedded PNG no longer decodes: %v", err)
	}

	got := Decode(embedded)
	if got == nil {
		t.Fatal("marker not found")
	}
	if *got != testMarker {
		t.Errorf("marker = %+v, want %+v", *got, testMarker)
	}
}

func TestJPEGRoundTrip(t *testing.T) {
	raw := testJPEG(t)
	embedded := Embed(raw, testMarker)
	if bytes.Equal(raw, embedded) {
		t.Fatal("embed did not modify JPEG")
	}

	if _, err := jpeg.Decode(bytes.NewReader(embedded)); err != nil {
		t.Fatalf("embedded JPEG no longer decodes: %v", err)
	}

	got := Decode(embedded)
	if got == nil {
		t.Fatal("marker not found")
	}
	if *got != testMarker {
		t.Errorf("marker = %+v, want %+v", *got, testMarker)
	}
}

func TestReEmbedReplaces(t *testing.T) {
	raw := testPNG(t)
	first := Embed(raw, testMarker)

	updated := testMarker
	updated.FilePath = "/def456.png"
	second := Embed(first, updated)

	got := Decode(second)
	if got == nil || got.FilePath != "/def456.png" {
		t.Errorf("marker = %+v, want updated path", got)
	}
	// Re-embedding must not grow the file with stale markers.
	if len(second) != len(first)+len("/def456.png")-len(testMarker.FilePath) {
		t.Errorf("stale marker chunk left behind: %d vs %d bytes", len(second), len(first))
	}
}

func TestCommentPrefixStripped(t *testing.T) {
	raw := testJPEG(t)
	payload := append([]byte("ASCII\x00\x00\x00"), []byte(`{"file_path":"/x.jpg","iso_639_1":"ja","iso_3166_1":""}`)...)

	var buf bytes.Buffer
	buf.Write(raw[:2])
	buf.WriteByte(0xff)
	buf.WriteByte(0xfe)
	buf.WriteByte(byte((len(payload) + 2) >> 8))
	buf.WriteByte(byte(len(payload) + 2))
	buf.Write(payload)
	buf.Write(raw[2:])

	got := Decode(buf.Bytes())
	if got == nil || got.FilePath != "/x.jpg" || got.ISO6391 != "ja" {
		t.Errorf("marker = %+v", got)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	raw := []byte("GIF89a not really an image")
	if out := Embed(raw, testMarker); !bytes.Equal(out, raw) {
		t.Error("unsupported format should pass through unmodified")
	}
	if m := Decode(raw); m != nil {
		t.Errorf("unsupported format should read nil, got %+v", m)
	}
}

func TestCorruptBytes(t *testing.T) {
	corrupt := append(append([]byte{}, pngSignature...), 0xff, 0xff, 0xff)
	if m := Decode(corrupt); m != nil {
		t.Errorf("corrupt PNG should read nil, got %+v", m)
	}
	if m := Decode([]byte{0xff, 0xd8, 0x00}); m != nil {
		t.Errorf("corrupt JPEG should read nil, got %+v", m)
	}
}

func TestReadMissingFile(t *testing.T) {
	if m := Read(filepath.Join(t.TempDir(), "missing.png")); m != nil {
		t.Errorf("missing file should read nil, got %+v", m)
	}
}

func TestReadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poster.png")
	if err := os.WriteFile(path, Embed(testPNG(t), testMarker), 0o644); err != nil {
		t.Fatal(err)
	}
	got := Read(path)
	if got == nil || *got != testMarker {
		t.Errorf("marker = %+v", got)
	}
}
