// Package source provides the places a prediction dataset can be read from:
// a local JSON file, an HTTP endpoint, or a Postgres database.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// File reads the dataset from a JSON file on disk.
type File struct {
	Path string
}

// NewFile creates a file source.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Open opens the file for reading.
func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	return fh, nil
}

// Name returns the file path.
func (f *File) Name() string { return f.Path }
