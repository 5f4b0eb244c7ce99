package archive

import (
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"
)

// EntryInfo describes one entry of a container.
type EntryInfo struct {
	Name           string
	Size           int64
	CompressedSize int64
	Method         Method
	Modified       time.Time
}

// List returns the entries of the container at path in archive order.
func List(path string) ([]EntryInfo, error) {
	r, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entries := make([]EntryInfo, 0, len(r.File))
	for _, f := range r.File {
		entries = append(entries, EntryInfo{
			Name:           f.Name,
			Size:           int64(f.UncompressedSize64),
			CompressedSize: int64(f.CompressedSize64),
			Method:         Method(f.Method),
			Modified:       f.Modified,
		})
	}
	return entries, nil
}

// openReader opens a container able to decode every method WriteEntry writes.
func openReader(path string) (*zip.ReadCloser, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	registerDecompressors(&r.Reader)
	return r, nil
}
