package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
	"github.com/Zuo-Peng/dialogue-chunker/internal/split"
)

const talk = `[
  {"speaker": "user", "text": "hello river"},
  {"speaker": "ai", "text": "hello there"},
  {"speaker": "user", "text": "goodbye"}
]`

// setupEnv points HOME and the config dir at temp dirs and writes a config
// whose output root is returned.
func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	out := filepath.Join(t.TempDir(), "chunks")
	cfgDir := filepath.Join(home, ".config", "dchunk")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := "chunk_size = 30\noutput_dir = \"" + filepath.ToSlash(out) + "\"\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return out
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if args == nil {
		args = []string{} // nil makes cobra read os.Args
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSplit_File(t *testing.T) {
	out := setupEnv(t)
	input := writeInput(t, t.TempDir(), "talk.json", talk)

	_, stderr, err := execute(t, input)
	if err != nil {
		t.Fatalf("split: %v\n%s", err, stderr)
	}

	for _, want := range []string{
		"into ~30 character chunks",
		"Saved chunk 1: 1 entries",
		"Chunking completed successfully!",
		"Number of chunks: 3",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("output missing %q:\n%s", want, stderr)
		}
	}

	st, err := chunk.ReadStats(filepath.Join(out, "talk"))
	if err != nil {
		t.Fatalf("read stats: %v", err)
	}
	if st.TotalEntries != 3 || st.ChunkCount != 3 {
		t.Errorf("stats = %+v", st)
	}

	stdout, _, err := execute(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(stdout, "talk") || !strings.Contains(stdout, "memory") {
		t.Errorf("history missing run:\n%s", stdout)
	}
}

func TestSplit_FlagsOverrideConfig(t *testing.T) {
	setupEnv(t)
	input := writeInput(t, t.TempDir(), "talk.json", talk)
	out := t.TempDir()

	_, stderr, err := execute(t, input, "--chunk-size", "1000", "--output-dir", out, "--no-ledger", "--quiet")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if stderr != "" {
		t.Errorf("quiet run printed:\n%s", stderr)
	}
	files, err := chunk.ListFiles(filepath.Join(out, "talk"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("got %d chunk files, want 1", len(files))
	}
}

func TestSplit_Errors(t *testing.T) {
	setupEnv(t)

	if _, _, err := execute(t); !errors.Is(err, errMissingInput) {
		t.Errorf("no args: err = %v", err)
	}

	_, _, err := execute(t, filepath.Join(t.TempDir(), "missing.json"), "--no-ledger")
	if !errors.Is(err, split.ErrInputNotFound) {
		t.Errorf("missing input: err = %v", err)
	}

	input := writeInput(t, t.TempDir(), "talk.json", talk)
	_, _, err = execute(t, input, "--chunk-size", "0", "--no-ledger")
	if !errors.Is(err, split.ErrInvalidBudget) {
		t.Errorf("zero budget: err = %v", err)
	}

	bad := writeInput(t, t.TempDir(), "bad.json", `{"not": "a list"}`)
	_, _, err = execute(t, bad, "--no-ledger")
	if !errors.Is(err, split.ErrMalformedInput) {
		t.Errorf("malformed: err = %v", err)
	}
}

func TestSplit_Directory(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	writeInput(t, dir, "a.json", talk)
	writeInput(t, dir, "nested/b.jsonl", "{\"text\": \"one\"}\n{\"text\": \"two\"}\n")
	out := filepath.Join(dir, "chunks")

	// the second pass must not pick up the first pass's outputs
	for i := 0; i < 2; i++ {
		if _, stderr, err := execute(t, dir, "--output-dir", out, "--no-ledger"); err != nil {
			t.Fatalf("pass %d: %v\n%s", i, err, stderr)
		}
	}

	des, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, de := range des {
		names = append(names, de.Name())
	}
	if strings.Join(names, ",") != "a,b" {
		t.Errorf("namespaces = %v, want [a b]", names)
	}
}

func TestPreviewAndSearch(t *testing.T) {
	out := setupEnv(t)
	input := writeInput(t, t.TempDir(), "talk.json", talk)
	if _, _, err := execute(t, input, "--quiet"); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execute(t, "preview", filepath.Join(out, "talk"), "2", "--plain", "--query", "there")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(stdout, "--- E2  chunk 2  1 entries ---") || !strings.Contains(stdout, ">>>there<<<") {
		t.Errorf("preview output:\n%s", stdout)
	}

	if _, _, err := execute(t, "preview", "talk", "9"); err == nil {
		t.Error("expected error for missing chunk")
	}

	stdout, _, err = execute(t, "search", "river")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 1 {
		t.Fatalf("search lines = %q", lines)
	}
	fields := strings.Split(lines[0], "\t")
	if len(fields) != 6 || filepath.Base(fields[0]) != "talk" || fields[1] != "1" {
		t.Errorf("search row = %q", fields)
	}
}

func TestConfigInit(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	stdout, _, err := execute(t, "config", "init")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "Wrote ") {
		t.Errorf("first init: %q", stdout)
	}

	stdout, _, err = execute(t, "config", "init")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "already exists") {
		t.Errorf("second init: %q", stdout)
	}
}
