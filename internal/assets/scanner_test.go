package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScan(t *testing.T) {
	dir := t.TempDir()
	mustMkdir := func(parts ...string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Join(parts...), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite := func(parts ...string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(parts...), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mustMkdir(dir, "12-ficus-pumila")
	mustWrite(dir, "12-ficus-pumila", "b.jpg")
	mustWrite(dir, "12-ficus-pumila", "a.webp")
	mustWrite(dir, "12-ficus-pumila", "notes.txt")
	mustMkdir(dir, "hoya-carnosa")
	mustMkdir(dir, ".git")
	mustWrite(dir, "stray.jpg")

	lib, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	folders := lib.Folders()
	if len(folders) != 2 {
		t.Fatalf("expected 2 folders, got %d: %v", len(folders), folders)
	}
	if folders[0].Name != "12-ficus-pumila" || folders[1].Name != "hoya-carnosa" {
		t.Errorf("folders not sorted by name: %v", folders)
	}
	if folders[0].Stripped != "ficus-pumila" {
		t.Errorf("Stripped = %q, want numeric prefix removed", folders[0].Stripped)
	}
	if len(folders[0].Files) != 2 || folders[0].Files[0] != "a.webp" || folders[0].Files[1] != "b.jpg" {
		t.Errorf("Files = %v, want sorted image files only", folders[0].Files)
	}
}

func TestScanMissingDirectory(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing asset directory")
	}
}
