package archive

import (
	"archive/tar"
	"fmt"
	"os"
	"time"

	"github.com/ulikunitz/xz"
)

// Writer builds a tar.xz archive entry by entry.
type Writer struct {
	file *os.File
	xzw  *xz.Writer
	tw   *tar.Writer
}

// NewWriter creates a tar.xz archive at path, truncating any existing file.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	xzw, err := xz.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xz writer: %w", err)
	}

	return &Writer{
		file: f,
		xzw:  xzw,
		tw:   tar.NewWriter(xzw),
	}, nil
}

// WriteFile adds one regular file entry to the archive.
func (w *Writer) WriteFile(name string, data []byte, modTime time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// Close flushes the tar and xz streams and closes the file. It must be
// called for the archive to be complete.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := w.xzw.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close xz writer: %w", err)
	}
	return w.file.Close()
}
