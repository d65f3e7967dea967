// Package zip bundles in-memory files into a zip archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Entry is one file in the archive.
type Entry struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Archive writes entries in order. Duplicate names are rejected.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("zip: entry name is required")
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("zip: duplicate entry %q", e.Name)
		}
		seen[e.Name] = struct{}{}
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: e.Modified}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
