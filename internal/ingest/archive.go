package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// FilePayload is one input file handed to the worker: a raw XML
// document or a zip archive of them.
type FilePayload struct {
	Name string
	Data []byte
}

// IsArchive reports whether the payload should be expanded before
// mapping.
func (p FilePayload) IsArchive() bool {
	return strings.HasSuffix(strings.ToLower(p.Name), ".zip")
}

// expandArchive unpacks a zip payload into its XML members, preserving
// entry order. Directories and entries without an .xml extension are
// skipped.
func expandArchive(p FilePayload) ([]FilePayload, error) {
	r, err := zip.NewReader(bytes.NewReader(p.Data), int64(len(p.Data)))
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", p.Name, err)
	}

	var out []FilePayload
	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name), ".xml") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive entry %s: %w", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", entry.Name, err)
		}
		out = append(out, FilePayload{Name: entry.Name, Data: data})
	}
	return out, nil
}
