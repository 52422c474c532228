package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanInputs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.json"))
	touch(t, filepath.Join(root, "nested", "b.jsonl"))
	touch(t, filepath.Join(root, "nested", "c.json.zst"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "old", "chunk_001.json"))
	touch(t, filepath.Join(root, "old", chunk.StatsFile))
	touch(t, filepath.Join(root, "chunks", "a", "x.json"))

	files, err := ScanInputs(root, filepath.Join(root, "chunks"))
	if err != nil {
		t.Fatalf("ScanInputs: %v", err)
	}

	want := []string{
		filepath.Join(root, "a.json"),
		filepath.Join(root, "nested", "b.jsonl"),
		filepath.Join(root, "nested", "c.json.zst"),
	}
	if len(files) != len(want) {
		t.Fatalf("got %d files: %+v", len(files), files)
	}
	for i, f := range files {
		if f.Path != want[i] {
			t.Errorf("file %d = %q, want %q", i, f.Path, want[i])
		}
		if f.Size != 2 {
			t.Errorf("%s size = %d", f.Path, f.Size)
		}
	}
}

func TestNamespaces(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "done", chunk.StatsFile))
	touch(t, filepath.Join(root, "partial", "chunk_001.json"))
	touch(t, filepath.Join(root, "stray.json"))

	dirs, err := Namespaces(root)
	if err != nil {
		t.Fatalf("Namespaces: %v", err)
	}
	if len(dirs) != 1 || dirs[0] != filepath.Join(root, "done") {
		t.Errorf("Namespaces = %v", dirs)
	}
}
