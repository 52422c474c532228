package split

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
)

// makeLog writes n entries whose text grows with the index and returns the path.
func makeLog(t *testing.T, dir, name string, n int) string {
	t.Helper()
	var entries []map[string]any
	for i := 0; i < n; i++ {
		entries = append(entries, map[string]any{
			"id":      i,
			"speaker": []string{"user", "ai"}[i%2],
			"text":    fmt.Sprintf("発話 %d %s", i, strings.Repeat("x", i*7%50)),
		})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readChunks(t *testing.T, dir string) []*chunk.File {
	t.Helper()
	files, err := chunk.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	var out []*chunk.File
	for _, f := range files {
		cf, err := chunk.ReadFile(f)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		out = append(out, cf)
	}
	return out
}

func entryIDs(t *testing.T, files []*chunk.File) []int {
	t.Helper()
	var ids []int
	for _, f := range files {
		for _, e := range f.Entries {
			var v struct {
				ID int `json:"id"`
			}
			if err := json.Unmarshal(e, &v); err != nil {
				t.Fatal(err)
			}
			ids = append(ids, v.ID)
		}
	}
	return ids
}

func TestRun_PreservesOrderAndNumbering(t *testing.T) {
	dir := t.TempDir()
	input := makeLog(t, dir, "sample01.json", 40)
	root := filepath.Join(dir, "chunks")

	var seen []int
	stats, err := Run(input, Options{
		Budget:     300,
		OutputRoot: root,
		OnChunk:    func(c chunk.Chunk, _ string) { seen = append(seen, c.Number) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.TotalEntries != 40 {
		t.Errorf("TotalEntries = %d", stats.TotalEntries)
	}
	if stats.ChunkCount < 2 {
		t.Fatalf("ChunkCount = %d, want several chunks", stats.ChunkCount)
	}
	if stats.OutputDirectory != filepath.Join(root, "sample01") {
		t.Errorf("OutputDirectory = %q", stats.OutputDirectory)
	}
	if stats.Mode != chunk.ModeMemory {
		t.Errorf("Mode = %q", stats.Mode)
	}
	want := float64(stats.TotalCharacters) / float64(stats.ChunkCount)
	if stats.AverageChunkSize != want {
		t.Errorf("AverageChunkSize = %v, want %v", stats.AverageChunkSize, want)
	}

	files := readChunks(t, stats.OutputDirectory)
	if len(files) != stats.ChunkCount {
		t.Fatalf("%d chunk files, stats say %d", len(files), stats.ChunkCount)
	}
	total := 0
	for i, f := range files {
		if f.Metadata.ChunkNumber != i+1 || seen[i] != i+1 {
			t.Errorf("chunk %d numbered %d (callback %d)", i+1, f.Metadata.ChunkNumber, seen[i])
		}
		if f.Metadata.SessionID != fmt.Sprintf("E%d", i+1) {
			t.Errorf("SessionID = %q", f.Metadata.SessionID)
		}
		if f.Metadata.EntryCount != len(f.Entries) || len(f.Entries) == 0 {
			t.Errorf("chunk %d EntryCount = %d, entries = %d", i+1, f.Metadata.EntryCount, len(f.Entries))
		}
		size := 0
		for _, e := range f.Entries {
			size += chunk.Estimate(e)
		}
		if size > 300 && len(f.Entries) > 1 {
			t.Errorf("chunk %d size %d exceeds budget with %d entries", i+1, size, len(f.Entries))
		}
		total += len(f.Entries)
	}
	if total != stats.TotalEntries {
		t.Errorf("chunk entries sum to %d, want %d", total, stats.TotalEntries)
	}

	ids := entryIDs(t, files)
	for i, id := range ids {
		if id != i {
			t.Fatalf("entry order broken at %d: got id %d", i, id)
		}
	}

	saved, err := chunk.ReadStats(stats.OutputDirectory)
	if err != nil {
		t.Fatalf("ReadStats: %v", err)
	}
	if *saved != stats {
		t.Errorf("saved stats = %+v, want %+v", *saved, stats)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "empty.json")
	os.WriteFile(input, []byte("[]"), 0o644)

	stats, err := Run(input, Options{Budget: 100, OutputRoot: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.TotalEntries != 0 || stats.ChunkCount != 0 || stats.AverageChunkSize != 0 {
		t.Errorf("stats = %+v", stats)
	}
	files, _ := chunk.ListFiles(stats.OutputDirectory)
	if len(files) != 0 {
		t.Errorf("empty input wrote %v", files)
	}
	if _, err := chunk.ReadStats(stats.OutputDirectory); err != nil {
		t.Errorf("stats not persisted: %v", err)
	}
}

func TestRun_SingleOversizedEntry(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "big.json")
	os.WriteFile(input, []byte(`[{"text": "`+strings.Repeat("あ", 500)+`"}]`), 0o644)

	stats, err := Run(input, Options{Budget: 10, OutputRoot: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.ChunkCount != 1 || stats.TotalEntries != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.TotalCharacters != 512 {
		t.Errorf("TotalCharacters = %d, want 512", stats.TotalCharacters)
	}
	files := readChunks(t, stats.OutputDirectory)
	if len(files) != 1 || len(files[0].Entries) != 1 {
		t.Fatalf("files = %d", len(files))
	}
}

func TestRun_RerunRemovesStaleChunks(t *testing.T) {
	dir := t.TempDir()
	input := makeLog(t, dir, "log.json", 30)
	root := filepath.Join(dir, "out")

	first, err := Run(input, Options{Budget: 100, OutputRoot: root})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(input, Options{Budget: 100000, OutputRoot: root})
	if err != nil {
		t.Fatal(err)
	}
	if first.ChunkCount <= second.ChunkCount {
		t.Fatalf("expected fewer chunks on second run: %d then %d", first.ChunkCount, second.ChunkCount)
	}

	files, _ := chunk.ListFiles(second.OutputDirectory)
	if len(files) != 1 {
		t.Errorf("stale chunk files remain: %v", files)
	}
	saved, _ := chunk.ReadStats(second.OutputDirectory)
	if saved.ChunkCount != 1 {
		t.Errorf("stats not overwritten: %+v", saved)
	}
}

func TestRun_MalformedInput(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "out")

	good := makeLog(t, dir, "good.json", 10)
	before, err := Run(good, Options{Budget: 100, OutputRoot: root})
	if err != nil {
		t.Fatal(err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"entries": [1, 2, 3]}`), 0o644)

	for _, streaming := range []bool{false, true} {
		opts := Options{Budget: 100, OutputRoot: root, Streaming: streaming}
		if streaming {
			opts.MemoryLimit = 1
		}
		_, err := Run(bad, opts)
		if !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("streaming=%v err = %v, want ErrMalformedInput", streaming, err)
		}

		files, _ := chunk.ListFiles(filepath.Join(root, "bad"))
		if len(files) != 0 {
			t.Errorf("malformed input wrote chunks: %v", files)
		}
		if _, err := chunk.ReadStats(filepath.Join(root, "bad")); err == nil {
			t.Error("malformed input wrote statistics")
		}
	}

	after, _ := chunk.ListFiles(before.OutputDirectory)
	if len(after) != before.ChunkCount {
		t.Errorf("other namespace touched: %d files, want %d", len(after), before.ChunkCount)
	}
}

func TestRun_InputNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(filepath.Join(dir, "missing.json"), Options{Budget: 100, OutputRoot: dir})
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("err = %v, want ErrInputNotFound", err)
	}
	_, err = Run(dir, Options{Budget: 100, OutputRoot: dir})
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("directory input err = %v, want ErrInputNotFound", err)
	}
}

func TestRun_InvalidBudget(t *testing.T) {
	dir := t.TempDir()
	input := makeLog(t, dir, "a.json", 2)
	if _, err := Run(input, Options{Budget: 0, OutputRoot: dir}); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("err = %v, want ErrInvalidBudget", err)
	}
}

func TestRun_StreamingMatchesMemory(t *testing.T) {
	dir := t.TempDir()
	input := makeLog(t, dir, "long.json", 60)

	mem, err := Run(input, Options{Budget: 250, OutputRoot: filepath.Join(dir, "mem")})
	if err != nil {
		t.Fatal(err)
	}
	str, err := Run(input, Options{
		Budget:      250,
		OutputRoot:  filepath.Join(dir, "stream"),
		MemoryLimit: 64,
		Streaming:   true,
	})
	if err != nil {
		t.Fatalf("streaming Run: %v", err)
	}
	if str.Mode != chunk.ModeStreaming {
		t.Errorf("Mode = %q, want streaming", str.Mode)
	}
	if mem.ChunkCount != str.ChunkCount || mem.TotalEntries != str.TotalEntries || mem.TotalCharacters != str.TotalCharacters {
		t.Fatalf("memory %+v, streaming %+v", mem, str)
	}

	memFiles, _ := chunk.ListFiles(mem.OutputDirectory)
	strFiles, _ := chunk.ListFiles(str.OutputDirectory)
	for i := range memFiles {
		a, _ := os.ReadFile(memFiles[i])
		b, _ := os.ReadFile(strFiles[i])
		if string(a) != string(b) {
			t.Errorf("%s differs between memory and streaming mode", filepath.Base(memFiles[i]))
		}
	}
}

func TestRun_StreamingDisabled(t *testing.T) {
	dir := t.TempDir()
	input := makeLog(t, dir, "long.json", 10)

	_, err := Run(input, Options{Budget: 100, OutputRoot: dir, MemoryLimit: 16})
	if !errors.Is(err, ErrStreamingUnsupported) {
		t.Fatalf("err = %v, want ErrStreamingUnsupported", err)
	}
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("err = %v should wrap ErrResourceExhausted", err)
	}
}

func TestRun_JSONLInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "talk.jsonl")
	os.WriteFile(input, []byte("{\"id\": 0}\n{\"id\": 1}\n\n{\"id\": 2}\n"), 0o644)

	stats, err := Run(input, Options{Budget: 20, OutputRoot: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.TotalEntries != 3 || stats.ChunkCount != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if ids := entryIDs(t, readChunks(t, stats.OutputDirectory)); len(ids) != 3 || ids[2] != 2 {
		t.Errorf("ids = %v", ids)
	}
}

func TestRun_StorageFailureKeepsWrittenChunks(t *testing.T) {
	dir := t.TempDir()
	input := makeLog(t, dir, "log.json", 20)
	root := filepath.Join(dir, "out")

	ns := filepath.Join(root, "log")
	if err := os.MkdirAll(ns, 0o755); err != nil {
		t.Fatal(err)
	}
	// a directory in place of chunk 2 makes its write fail
	if err := os.Mkdir(chunk.Path(ns, 2), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := Run(input, Options{Budget: 100, OutputRoot: root})
	if !errors.Is(err, ErrStorageWrite) {
		t.Fatalf("err = %v, want ErrStorageWrite", err)
	}
	if _, err := os.Stat(chunk.Path(ns, 1)); err != nil {
		t.Errorf("chunk 1 should survive the failed run: %v", err)
	}
	if _, err := chunk.ReadStats(ns); err == nil {
		t.Error("failed run wrote statistics")
	}
}
