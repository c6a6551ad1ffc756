package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestArchive builds a tar.xz archive with the given entries.
func writeTestArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tar.xz")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter() error: %v", err)
	}
	now := time.Now()
	for name, content := range entries {
		if err := w.WriteFile(name, []byte(content), now); err != nil {
			t.Fatalf("WriteFile(%q) error: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	return path
}

func TestWriteAndIterate(t *testing.T) {
	path := writeTestArchive(t, map[string]string{
		"manifest.json": `{"format_version": "1"}`,
		"patterns/a.json": `{"name": "a"}`,
	})

	seen := map[string]string{}
	err := IterateArchive(path, func(hdr *tar.Header, r io.Reader) (bool, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return true, err
		}
		seen[hdr.Name] = string(data)
		return false, nil
	})
	if err != nil {
		t.Fatalf("IterateArchive() error: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("saw %d entries, want 2", len(seen))
	}
	if seen["patterns/a.json"] != `{"name": "a"}` {
		t.Errorf("entry content = %q", seen["patterns/a.json"])
	}
}

func TestIterateStopsEarly(t *testing.T) {
	path := writeTestArchive(t, map[string]string{
		"one": "1",
		"two": "2",
	})

	count := 0
	err := IterateArchive(path, func(hdr *tar.Header, r io.Reader) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		t.Fatalf("IterateArchive() error: %v", err)
	}
	if count != 1 {
		t.Errorf("visitor ran %d times, want 1", count)
	}
}

func TestReadFile(t *testing.T) {
	path := writeTestArchive(t, map[string]string{
		"manifest.json": `{"pattern_count": 3}`,
	})

	data, err := ReadFile(path, "manifest.json")
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != `{"pattern_count": 3}` {
		t.Errorf("ReadFile() = %q", data)
	}

	if _, err := ReadFile(path, "absent.json"); err == nil {
		t.Error("ReadFile of a missing entry should fail")
	}
}

func TestNewReaderErrors(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "absent.tar.xz")); err == nil {
		t.Error("NewReader of a missing file should fail")
	}

	// Not an xz stream.
	bad := filepath.Join(t.TempDir(), "bad.tar.xz")
	if err := os.WriteFile(bad, []byte("plainly not xz"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(bad); err == nil {
		t.Error("NewReader of a non-xz file should fail")
	}
}
