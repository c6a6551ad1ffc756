package validation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		wantError error
	}{
		{
			name:      "valid simple filename",
			filename:  "file.txt",
			wantError: nil,
		},
		{
			name:      "valid filename with spaces",
			filename:  "my file.txt",
			wantError: nil,
		},
		{
			name:      "valid filename with special chars",
			filename:  "file_name-2024.tar.gz",
			wantError: nil,
		},
		{
			name:      "empty filename",
			filename:  "",
			wantError: ErrInvalidFilename,
		},
		{
			name:      "dot filename",
			filename:  ".",
			wantError: ErrInvalidFilename,
		},
		{
			name:      "dotdot filename",
			filename:  "..",
			wantError: ErrInvalidFilename,
		},
		{
			name:      "filename with slash",
			filename:  "dir/file.txt",
			wantError: ErrInvalidFilename,
		},
		{
			name:      "filename with backslash",
			filename:  "dir\\file.txt",
			wantError: ErrInvalidFilename,
		},
		{
			name:      "filename with null byte",
			filename:  "file\x00.txt",
			wantError: ErrInvalidFilename,
		},
		{
			name:      "filename with control character",
			filename:  "file\n.txt",
			wantError: ErrInvalidFilename,
		},
		{
			name:      "filename starting with hyphen",
			filename:  "-file.txt",
			wantError: ErrInvalidFilename,
		},
		{
			name:      "too long filename",
			filename:  strings.Repeat("a", 256),
			wantError: ErrFilenameTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)

			if tt.wantError != nil {
				if err == nil {
					t.Errorf("ValidateFilename() expected error %v, got nil", tt.wantError)
					return
				}
				if !errors.Is(err, tt.wantError) && !strings.Contains(err.Error(), tt.wantError.Error()) {
					t.Errorf("ValidateFilename() error = %v, want %v", err, tt.wantError)
				}
				return
			}

			if err != nil {
				t.Errorf("ValidateFilename() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateFileType(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		content      []byte
		wantFileType FileType
		wantError    bool
	}{
		// Archive formats - exact matches
		{
			name:         "tar file with ustar magic",
			filename:     "archive.tar",
			content:      makeTarHeader(),
			wantFileType: FileTypeTar,
			wantError:    false,
		},
		{
			name:         "xz file",
			filename:     "file.xz",
			content:      []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
			wantFileType: FileTypeXZ,
			wantError:    false,
		},
		{
			name:         "sqlite file",
			filename:     "database.sqlite",
			content:      []byte("SQLite format 3\x00"),
			wantFileType: FileTypeSQLite,
			wantError:    false,
		},
		// Compressed tar archives
		{
			name:         "tar.xz file with xz magic",
			filename:     "archive.tar.xz",
			content:      []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
			wantFileType: FileTypeTarXZ,
			wantError:    false,
		},
		// Text formats
		{
			name:         "xml file",
			filename:     "document.xml",
			content:      []byte("<?xml version=\"1.0\"?>\n<root></root>"),
			wantFileType: FileTypeXML,
			wantError:    false,
		},
		{
			name:         "json file",
			filename:     "data.json",
			content:      []byte(`{"key": "value"}`),
			wantFileType: FileTypeJSON,
			wantError:    false,
		},
		{
			name:         "text file",
			filename:     "document.txt",
			content:      []byte("This is plain text content\nWith multiple lines"),
			wantFileType: FileTypeText,
			wantError:    false,
		},
		// Edge cases
		{
			name:         "unknown extension with no magic",
			filename:     "file.unknown",
			content:      []byte("random content"),
			wantFileType: FileTypeUnknown,
			wantError:    false,
		},
		{
			name:         "type mismatch - claims sqlite but is tar",
			filename:     "fake.sqlite",
			content:      makeTarHeader(),
			wantFileType: FileTypeUnknown,
			wantError:    true,
		},
		{
			name:         "type mismatch - claims tar but is sqlite",
			filename:     "fake.tar",
			content:      []byte("SQLite format 3\x00"),
			wantFileType: FileTypeUnknown,
			wantError:    true,
		},
		{
			name:         "empty file",
			filename:     "empty.txt",
			content:      []byte{},
			wantFileType: FileTypeText,
			wantError:    false,
		},
		{
			name:         "small file less than 512 bytes",
			filename:     "small.txt",
			content:      []byte("small"),
			wantFileType: FileTypeText,
			wantError:    false,
		},
		{
			name:         "binary content with text extension - falls back to expected",
			filename:     "fake.txt",
			content:      append([]byte("text"), bytes.Repeat([]byte{0x01, 0x02, 0x03}, 50)...),
			wantFileType: FileTypeText,
			wantError:    false,
		},
		{
			name:         "db extension for sqlite",
			filename:     "database.db",
			content:      []byte("SQLite format 3\x00"),
			wantFileType: FileTypeSQLite,
			wantError:    false,
		},
		{
			name:         "sqlite3 extension",
			filename:     "database.sqlite3",
			content:      []byte("SQLite format 3\x00"),
			wantFileType: FileTypeSQLite,
			wantError:    false,
		},
		{
			name:         "markdown file",
			filename:     "readme.md",
			content:      []byte("# Heading\n\nThis is markdown."),
			wantFileType: FileTypeText,
			wantError:    false,
		},
		{
			name:         "detected type is not unknown, expected is unknown",
			filename:     "file.bin",
			content:      []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
			wantFileType: FileTypeXZ,
			wantError:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := strings.NewReader(string(tt.content))
			gotFileType, err := ValidateFileType(reader, tt.filename)

			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateFileType() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("ValidateFileType() unexpected error: %v", err)
				return
			}

			if gotFileType != tt.wantFileType {
				t.Errorf("ValidateFileType() = %v, want %v", gotFileType, tt.wantFileType)
			}
		})
	}
}

// makeTarHeader creates a minimal tar header with ustar magic at offset 257
func makeTarHeader() []byte {
	buf := make([]byte, 512)
	copy(buf[257:], []byte("ustar"))
	return buf
}

// errorReader is a reader that always returns an error
type errorReader struct{}

func (e errorReader) Read(p []byte) (n int, err error) {
	return 0, fmt.Errorf("read error")
}

func TestValidateFileType_ReadError(t *testing.T) {
	reader := errorReader{}
	_, err := ValidateFileType(reader, "test.txt")
	if err == nil {
		t.Error("ValidateFileType() expected error from reader, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read file header") {
		t.Errorf("ValidateFileType() error = %v, want error about reading file header", err)
	}
}

func TestDetectFileTypeFromMagic(t *testing.T) {
	tests := []struct {
		name         string
		content      []byte
		wantFileType FileType
	}{
		{
			name:         "tar magic at offset 257",
			content:      makeTarHeader(),
			wantFileType: FileTypeTar,
		},
		{
			name:         "xz magic",
			content:      []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
			wantFileType: FileTypeXZ,
		},
		{
			name:         "sqlite magic",
			content:      []byte("SQLite format 3"),
			wantFileType: FileTypeSQLite,
		},
		{
			name:         "unknown magic",
			content:      []byte("random content"),
			wantFileType: FileTypeUnknown,
		},
		{
			name:         "empty buffer",
			content:      []byte{},
			wantFileType: FileTypeUnknown,
		},
		{
			name:         "partial magic bytes",
			content:      []byte{0x1f},
			wantFileType: FileTypeUnknown,
		},
		{
			name:         "buffer too small for tar",
			content:      make([]byte, 256),
			wantFileType: FileTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFileTypeFromMagic(tt.content)
			if got != tt.wantFileType {
				t.Errorf("detectFileTypeFromMagic() = %v, want %v", got, tt.wantFileType)
			}
		})
	}
}

func TestDetectFileTypeFromExtension(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		wantFileType FileType
	}{
		// Multi-extension formats
		{
			name:         "tar.xz extension",
			filename:     "archive.tar.xz",
			wantFileType: FileTypeTarXZ,
		},
		// Single extension formats
		{
			name:         "tar extension",
			filename:     "archive.tar",
			wantFileType: FileTypeTar,
		},
		{
			name:         "xz extension",
			filename:     "file.xz",
			wantFileType: FileTypeXZ,
		},
		{
			name:         "sqlite extension",
			filename:     "database.sqlite",
			wantFileType: FileTypeSQLite,
		},
		{
			name:         "db extension",
			filename:     "database.db",
			wantFileType: FileTypeSQLite,
		},
		{
			name:         "sqlite3 extension",
			filename:     "database.sqlite3",
			wantFileType: FileTypeSQLite,
		},
		{
			name:         "xml extension",
			filename:     "document.xml",
			wantFileType: FileTypeXML,
		},
		{
			name:         "json extension",
			filename:     "data.json",
			wantFileType: FileTypeJSON,
		},
		{
			name:         "txt extension",
			filename:     "file.txt",
			wantFileType: FileTypeText,
		},
		{
			name:         "md extension",
			filename:     "readme.md",
			wantFileType: FileTypeText,
		},
		{
			name:         "unknown extension",
			filename:     "file.unknown",
			wantFileType: FileTypeUnknown,
		},
		{
			name:         "no extension",
			filename:     "file",
			wantFileType: FileTypeUnknown,
		},
		{
			name:         "uppercase extension",
			filename:     "ARCHIVE.TAR.XZ",
			wantFileType: FileTypeTarXZ,
		},
		{
			name:         "mixed case extension",
			filename:     "Archive.Tar.Xz",
			wantFileType: FileTypeTarXZ,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFileTypeFromExtension(tt.filename)
			if got != tt.wantFileType {
				t.Errorf("detectFileTypeFromExtension() = %v, want %v", got, tt.wantFileType)
			}
		})
	}
}

func TestIsLikelyText(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{
			name:    "plain ascii text",
			content: []byte("This is plain ASCII text."),
			want:    true,
		},
		{
			name:    "text with newlines",
			content: []byte("Line 1\nLine 2\nLine 3"),
			want:    true,
		},
		{
			name:    "text with tabs",
			content: []byte("Column1\tColumn2\tColumn3"),
			want:    true,
		},
		{
			name:    "text with carriage returns",
			content: []byte("Windows\r\nLine\r\nEndings"),
			want:    true,
		},
		{
			name:    "text with mixed whitespace",
			content: []byte("Text\t\twith\n\r\nspaces"),
			want:    true,
		},
		{
			name:    "xml content",
			content: []byte("<?xml version=\"1.0\"?>\n<root></root>"),
			want:    true,
		},
		{
			name:    "json content",
			content: []byte(`{"key": "value", "number": 123}`),
			want:    true,
		},
		{
			name:    "utf-8 text",
			content: []byte("Hello 世界 🌍"),
			want:    true,
		},
		{
			name:    "binary with null bytes",
			content: []byte{0x00, 0x01, 0x02, 0x03},
			want:    false,
		},
		{
			name:    "binary with control characters",
			content: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
			want:    false,
		},
		{
			name:    "mixed binary and text",
			content: append([]byte("Text"), 0x00, 0x01, 0x02),
			want:    false,
		},
		{
			name:    "empty buffer",
			content: []byte{},
			want:    false,
		},
		{
			name:    "mostly printable with few control chars - above threshold",
			content: append([]byte(strings.Repeat("a", 96)), []byte{0x01, 0x02, 0x03, 0x04}...),
			want:    true,
		},
		{
			name:    "mostly printable but below 95% threshold",
			content: append([]byte(strings.Repeat("a", 94)), []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}...),
			want:    false,
		},
		{
			name:    "utf-8 continuation bytes",
			content: []byte("Test UTF-8: \xc3\xa9\xc3\xa8\xc3\xa0"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isLikelyText(tt.content)
			if got != tt.want {
				t.Errorf("isLikelyText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidatePatternName(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		wantError bool
	}{
		{"simple name", "http-get", false},
		{"dotted name", "logs.access.v2", false},
		{"underscored name", "even_pairs", false},
		{"single letter", "a", false},
		{"digits", "42", false},
		{"empty", "", true},
		{"leading separator", "-bad", true},
		{"space", "two words", true},
		{"slash", "a/b", true},
		{"too long", strings.Repeat("a", MaxPatternNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePatternName(tt.pattern)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidatePatternName(%q) expected error, got nil", tt.pattern)
				} else if !errors.Is(err, ErrInvalidPatternName) {
					t.Errorf("ValidatePatternName(%q) error = %v, want ErrInvalidPatternName", tt.pattern, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidatePatternName(%q) unexpected error: %v", tt.pattern, err)
			}
		})
	}
}

func BenchmarkValidateFilename(b *testing.B) {
	filename := "valid_filename.txt"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateFilename(filename)
	}
}
