package search

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindPackets(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	names := []string{
		filepath.Join(dir, "a.bin"),
		filepath.Join(sub, "b.bin"),
		filepath.Join(dir, "c.txt"),
	}
	for _, name := range names {
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	found, err := FindPackets(dir, "*.bin")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 2 {
		t.Fatalf("found %d files, want 2: %v", len(found), found)
	}
}

func TestFindCaptures(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cap.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := FindCaptures(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d files, want 1", len(found))
	}
}
