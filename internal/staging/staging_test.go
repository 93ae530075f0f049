package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStashWritesUniquePaths(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	p1, err := store.Stash("lekcja.mp3", strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatalf("Stash error: %v", err)
	}
	p2, err := store.Stash("lekcja.mp3", strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatalf("Stash error: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("identical names must stage to distinct paths: %s", p1)
	}
	data, err := os.ReadFile(p1)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Fatalf("staged content mismatch: %q", data)
	}
	if !strings.HasSuffix(p1, "_lekcja.mp3") {
		t.Fatalf("staged name should keep the original base name: %s", p1)
	}
}

func TestStashRejectsBadNames(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	for _, name := range []string{"", "."} {
		if _, err := store.Stash(name, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for name %q", name)
		}
	}
}

func TestStashStripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	p, err := store.Stash("../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Stash error: %v", err)
	}
	if filepath.Dir(p) != dir {
		t.Fatalf("staged file escaped the staging dir: %s", p)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	p, err := store.Stash("zdjecie.png", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("Stash error: %v", err)
	}
	if err := store.Remove(p); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := store.Remove(p); err != nil {
		t.Fatalf("second Remove should be a no-op, got: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("file still present after Remove")
	}
}

func TestRemoveAllContinuesPastMissingPaths(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	p1, _ := store.Stash("a.txt", strings.NewReader("a"))
	p2, _ := store.Stash("b.txt", strings.NewReader("b"))
	if err := store.RemoveAll([]string{p1, "already-gone", p2}); err != nil {
		t.Fatalf("missing paths are not errors: %v", err)
	}
	for _, p := range []string{p1, p2} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("file %s still present after RemoveAll", p)
		}
	}
}
