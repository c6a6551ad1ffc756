package library

import (
	"archive/tar"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/Cadence/core/errors"
	"github.com/FocuswithJustin/Cadence/core/pattern"
	"github.com/FocuswithJustin/Cadence/internal/archive"
	"github.com/FocuswithJustin/Cadence/internal/logging"
	"github.com/FocuswithJustin/Cadence/internal/validation"
)

// manifest is the first entry of an exported archive.
type manifest struct {
	FormatVersion string `json:"format_version"`
	CreatedAt     string `json:"created_at"`
	PatternCount  int    `json:"pattern_count"`
}

const formatVersion = "1"

// Export writes every stored pattern to a tar.xz archive at path. The
// archive holds a manifest.json followed by one patterns/<name>.json record
// per pattern.
func (l *Library) Export(path string) error {
	patterns, err := l.List()
	if err != nil {
		return err
	}

	w, err := archive.NewWriter(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}

	now := time.Now().UTC()
	man := manifest{
		FormatVersion: formatVersion,
		CreatedAt:     now.Format(time.RFC3339),
		PatternCount:  len(patterns),
	}
	manData, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		w.Close()
		return errors.Wrap(err, "encoding manifest")
	}
	if err := w.WriteFile("manifest.json", manData, now); err != nil {
		w.Close()
		return errors.Wrap(err, "writing manifest")
	}

	for _, p := range patterns {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			w.Close()
			return errors.Wrapf(err, "encoding pattern %q", p.Name)
		}
		if err := w.WriteFile("patterns/"+p.Name+".json", data, now); err != nil {
			w.Close()
			return errors.Wrapf(err, "writing pattern %q", p.Name)
		}
	}

	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing archive")
	}
	logging.Info("library_export", "path", path, "pattern_count", len(patterns))
	return nil
}

// Import reads a tar.xz archive produced by Export and stores every pattern
// record whose name is not already present. It returns the number of
// patterns imported. Records with a digest that does not match their source
// are rejected.
func (l *Library) Import(path string) (int, error) {
	if err := checkArchiveFile(path); err != nil {
		return 0, err
	}

	imported := 0
	err := archive.IterateArchive(path, func(hdr *tar.Header, r io.Reader) (bool, error) {
		if !strings.HasPrefix(hdr.Name, "patterns/") || !strings.HasSuffix(hdr.Name, ".json") {
			return false, nil
		}
		if err := validation.ValidateFilename(filepath.Base(hdr.Name)); err != nil {
			return true, &errors.ValidationError{Field: "entry", Value: hdr.Name, Message: err.Error(), Err: err}
		}

		data, err := io.ReadAll(r)
		if err != nil {
			return true, errors.NewIO("read", hdr.Name, err)
		}
		var p Pattern
		if err := json.Unmarshal(data, &p); err != nil {
			return true, &errors.ParseError{Format: "JSON", Source: hdr.Name, Message: err.Error(), Err: err}
		}
		if p.Digest != "" && p.Digest != Digest(p.Source) {
			return true, &errors.ParseError{
				Format:  "pattern archive",
				Source:  hdr.Name,
				Message: "digest does not match source",
			}
		}
		if _, err := pattern.Compile(p.Source); err != nil {
			return true, err
		}

		if _, err := l.Get(p.Name); err == nil {
			return false, nil // name already present, keep the local copy
		}
		if _, err := l.Add(p.Name, p.Source); err != nil {
			return true, err
		}
		imported++
		return false, nil
	})
	if err != nil {
		return imported, err
	}
	logging.Info("library_import", "path", path, "imported", imported)
	return imported, nil
}

// checkArchiveFile verifies the file's magic bytes match an xz archive
// before any decompression happens.
func checkArchiveFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer f.Close()

	ft, err := validation.ValidateFileType(f, path)
	if err != nil {
		return &errors.ValidationError{Field: "archive", Value: path, Message: err.Error(), Err: err}
	}
	if ft != validation.FileTypeTarXZ && ft != validation.FileTypeXZ {
		return errors.NewValidation("archive", "not an xz compressed archive")
	}
	return nil
}
