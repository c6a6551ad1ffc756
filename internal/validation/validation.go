// Package validation provides input validation for user-supplied names and
// files: library pattern names, archive entry names, and file content type
// checks based on magic bytes.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxFilenameLength is the maximum allowed filename length.
const MaxFilenameLength = 255

// Common validation errors.
var (
	ErrInvalidFilename = errors.New("invalid filename")
	ErrFilenameTooLong = errors.New("filename too long")
)

// ValidateFilename checks if a filename is safe and does not contain malicious characters.
// It rejects filenames with path separators, control characters, and dangerous patterns.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}

	// Check length
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}

	// Reject dangerous filenames
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}

	// Check for path separators
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}

	// Check for null bytes (common injection attack)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidFilename)
	}

	// Check for control characters
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}

	// Reject filenames starting with hyphen (can be confused with command flags)
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}

	return nil
}

// MaxPatternNameLength is the maximum allowed library pattern name length.
const MaxPatternNameLength = 128

// ErrInvalidPatternName indicates a library pattern name that is empty, too
// long, or contains characters outside the allowed identifier set.
var ErrInvalidPatternName = errors.New("invalid pattern name")

// ValidatePatternName checks that a library pattern name is a safe
// identifier: letters, digits, and the separators '.', '_', '-', starting
// with a letter or digit.
func ValidatePatternName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPatternName)
	}
	if len(name) > MaxPatternNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidPatternName, MaxPatternNameLength)
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		case (r == '.' || r == '_' || r == '-') && i > 0:
		default:
			return fmt.Errorf("%w: character %q not allowed", ErrInvalidPatternName, r)
		}
	}
	return nil
}

// FileType represents a validated file type.
type FileType string

const (
	// Archive formats
	FileTypeTarXZ FileType = "tar.xz"
	FileTypeTar   FileType = "tar"
	FileTypeXZ    FileType = "xz"

	// Binary formats
	FileTypeSQLite FileType = "sqlite"

	// Text/XML formats
	FileTypeXML  FileType = "xml"
	FileTypeJSON FileType = "json"
	FileTypeText FileType = "text"

	// Unknown
	FileTypeUnknown FileType = "unknown"
)

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
	offset   int
}{
	// Archive formats
	{FileTypeTar, []byte("ustar"), 257},                         // POSIX tar
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0}, // XZ

	// SQLite (must check before other binary formats)
	{FileTypeSQLite, []byte("SQLite format 3"), 0},
}

// ValidateFileType validates that a file's content matches its claimed type based on filename extension.
// It reads the file's magic bytes to verify the actual file type.
// Returns the detected file type or an error if the file type doesn't match expectations.
func ValidateFileType(reader io.Reader, filename string) (FileType, error) {
	// Read first 512 bytes for magic byte detection (enough for tar ustar at offset 257)
	buf := make([]byte, 512)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	// Detect actual file type from magic bytes
	detectedType := detectFileTypeFromMagic(buf)

	// Determine expected type from extension
	expectedType := detectFileTypeFromExtension(filename)

	// Special case: .tar.xz files. XZ is a compression wrapper, so we
	// can't detect tar until decompressed.
	if expectedType == FileTypeTarXZ && detectedType == FileTypeXZ {
		return FileTypeTarXZ, nil
	}

	// For the single-compression format (.xz), allow it
	if expectedType == FileTypeXZ && detectedType == FileTypeXZ {
		return FileTypeXZ, nil
	}

	// Exact match is always valid
	if detectedType == expectedType {
		return detectedType, nil
	}

	// Allow XML/JSON/text files (harder to distinguish by magic bytes)
	if detectedType == FileTypeUnknown && (expectedType == FileTypeXML || expectedType == FileTypeJSON || expectedType == FileTypeText) {
		// Light validation: check if it looks like text
		if isLikelyText(buf) {
			return expectedType, nil
		}
	}

	// Type mismatch
	if detectedType != FileTypeUnknown && expectedType != FileTypeUnknown {
		return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is %s", expectedType, detectedType)
	}

	// If we couldn't detect the type, return the expected type
	if detectedType == FileTypeUnknown {
		return expectedType, nil
	}

	return detectedType, nil
}

// detectFileTypeFromMagic detects file type from magic bytes.
func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(buf) {
			if bytes.Equal(buf[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
				return sig.fileType
			}
		}
	}
	return FileTypeUnknown
}

// detectFileTypeFromExtension determines expected file type from filename extension.
func detectFileTypeFromExtension(filename string) FileType {
	lower := strings.ToLower(filename)

	// Multi-extension formats (check these first)
	if strings.HasSuffix(lower, ".tar.xz") {
		return FileTypeTarXZ
	}

	// Single extension formats
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".tar":
		return FileTypeTar
	case ".xz":
		return FileTypeXZ
	case ".sqlite", ".db", ".sqlite3":
		return FileTypeSQLite
	case ".xml":
		return FileTypeXML
	case ".json":
		return FileTypeJSON
	case ".txt", ".md":
		return FileTypeText
	default:
		return FileTypeUnknown
	}
}

// isLikelyText checks if the buffer contains likely text content.
// Returns true if the buffer appears to be text (UTF-8, ASCII).
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}

	// Check for null bytes (strong indicator of binary content)
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	// Count printable characters vs control characters
	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			control++
		}
		// UTF-8 continuation bytes (0x80-0xBF) and start bytes (0xC0-0xFD) are neutral
	}

	// If more than 95% is printable, consider it text
	if printable > 0 && float64(printable)/float64(printable+control) > 0.95 {
		return true
	}

	return false
}
