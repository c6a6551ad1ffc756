// Package archive provides utilities for reading and writing the xz
// compressed tar archives used by pattern library exports.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// Reader wraps a tar.Reader with xz decompression.
type Reader struct {
	*tar.Reader
	file *os.File
}

// NewReader creates a new archive reader for the given tar.xz path.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	xzr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xz reader: %w", err)
	}

	return &Reader{
		Reader: tar.NewReader(xzr),
		file:   f,
	}, nil
}

// Close closes the underlying file. The xz reader holds no resources of its
// own.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateArchive opens an archive and iterates through its entries.
func IterateArchive(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// ReadFile reads a specific file from the archive.
func ReadFile(archivePath, filename string) ([]byte, error) {
	var content []byte
	err := IterateArchive(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Name == filename {
			var err error
			content, err = io.ReadAll(r)
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("file not found: %s", filename)
	}
	return content, nil
}
