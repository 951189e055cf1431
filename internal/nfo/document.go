package nfo

import (
	"bytes"
	"context"
	"os"
	"time"
)

// DocType classifies what a sidecar document describes.
type DocType int

const (
	DocUnknown DocType = iota
	DocSeries
	DocEpisode
)

// Document is a parsed .nfo sidecar. A document normally has a single
// root, but Sonarr writes multi-episode files as several sibling
// episodedetails roots; those parse into multiple entries and serialize
// back the same way.
type Document struct {
	Entries []*Element
}

// Parse builds a Document from raw sidecar bytes.
func Parse(data []byte) (*Document, error) {
	roots, err := parseElements(data)
	if err != nil {
		return nil, err
	}
	return &Document{Entries: roots}, nil
}

// Load reads and parses the sidecar at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadWithRetry retries Load until timeout elapses, sleeping interval
// between attempts. Sonarr writes sidecars non-atomically, so a file
// picked up from a create event may be momentarily truncated.
func LoadWithRetry(ctx context.Context, path string, timeout, interval time.Duration) (*Document, error) {
	deadline := time.Now().Add(timeout)
	for {
		doc, err := Load(path)
		if err == nil {
			return doc, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// MultiEpisode reports whether the document carries more than one entry.
func (d *Document) MultiEpisode() bool {
	return len(d.Entries) > 1
}

// Root returns the first entry.
func (d *Document) Root() *Element {
	return d.Entries[0]
}

// Encode serializes the document without an XML declaration. Multiple
// entries are joined by a newline, matching the sidecar shape Sonarr
// produces for multi-episode files.
func (d *Document) Encode() []byte {
	var buf bytes.Buffer
	for i, entry := range d.Entries {
		if i > 0 {
			buf.WriteByte('\n')
		}
		entry.writeTo(&buf)
	}
	return buf.Bytes()
}

// Type classifies a single entry by its root tag.
func Type(root *Element) DocType {
	switch root.Name {
	case "tvshow", "series":
		return DocSeries
	case "episodedetails", "episode":
		return DocEpisode
	default:
		return DocUnknown
	}
}
