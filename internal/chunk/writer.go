package chunk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	filePattern = "chunk_*.json"
	StatsFile   = "chunking_stats.json"
)

// ErrStorageWrite wraps every failure to write chunk or statistics output.
var ErrStorageWrite = errors.New("storage write failed")

// Writer persists chunks into the namespace directory derived from one input.
type Writer struct {
	root string
	dir  string
}

func NewWriter(outputRoot, input string) *Writer {
	return &Writer{root: outputRoot, dir: Namespace(outputRoot, input)}
}

// Dir is the namespace directory.
func (w *Writer) Dir() string { return w.dir }

// Namespace returns the output directory for input under outputRoot.
func Namespace(outputRoot, input string) string {
	return filepath.Join(outputRoot, Stem(input))
}

// Stem is the input base name without a trailing .zst and its extension.
func Stem(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), ".zst")
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// FileName is the stable name of chunk number n.
func FileName(n int) string {
	return fmt.Sprintf("chunk_%03d.json", n)
}

// Path returns the file path of chunk n inside namespace dir.
func Path(dir string, n int) string {
	return filepath.Join(dir, FileName(n))
}

// Prepare creates the namespace and removes chunk files left by a previous
// run. Other files in the namespace are kept.
func (w *Writer) Prepare() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create output dir: %w", ErrStorageWrite, err)
	}

	stale, err := ListFiles(w.dir)
	if err != nil {
		return fmt.Errorf("%w: list %s: %w", ErrStorageWrite, w.dir, err)
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("%w: remove %s: %w", ErrStorageWrite, p, err)
		}
	}
	return nil
}

// Write stores c under its numbered file name, replacing any existing file.
func (w *Writer) Write(c Chunk) (string, error) {
	path := Path(w.dir, c.Number)
	f := File{Metadata: c.Metadata(), Entries: c.Entries}
	if err := writeJSON(path, f); err != nil {
		return "", err
	}
	return path, nil
}

// WriteStats stores the run statistics, overwriting earlier ones.
func (w *Writer) WriteStats(s Stats) (string, error) {
	path := filepath.Join(w.dir, StatsFile)
	if err := writeJSON(path, s); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("%w: encode %s: %w", ErrStorageWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStorageWrite, path, err)
	}
	return nil
}

// ListFiles returns the chunk files in dir in chunk number order.
func ListFiles(dir string) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(filePattern, de.Name()); ok {
			files = append(files, filepath.Join(dir, de.Name()))
		}
	}
	sort.Slice(files, func(i, j int) bool {
		ni, _ := Number(files[i])
		nj, _ := Number(files[j])
		if ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})
	return files, nil
}

// Number extracts the chunk number from a chunk file name.
func Number(path string) (int, bool) {
	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "chunk_"), ".json")
	n, err := strconv.Atoi(name)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ReadFile loads a chunk file written by Write.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse chunk %s: %w", path, err)
	}
	return &f, nil
}

// ReadStats loads the statistics file of namespace dir.
func ReadStats(dir string) (*Stats, error) {
	data, err := os.ReadFile(filepath.Join(dir, StatsFile))
	if err != nil {
		return nil, err
	}
	var s Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse stats %s: %w", dir, err)
	}
	return &s, nil
}
