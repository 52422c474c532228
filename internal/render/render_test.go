package render

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
	"github.com/Zuo-Peng/dialogue-chunker/internal/parse"
)

func writeChunk(t *testing.T, entries ...string) string {
	t.Helper()
	w := chunk.NewWriter(t.TempDir(), "talk.json")
	if err := w.Prepare(); err != nil {
		t.Fatal(err)
	}
	c := chunk.Chunk{Number: 2}
	for _, e := range entries {
		c.Entries = append(c.Entries, parse.Entry(e))
	}
	path, err := w.Write(c)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWrapLine(t *testing.T) {
	got := wrapLine("abcdefgh", 3)
	if strings.Join(got, "|") != "abc|def|gh" {
		t.Errorf("wrapLine = %q", got)
	}
	// wide runes take two columns
	got = wrapLine("夏の家", 4)
	if strings.Join(got, "|") != "夏の|家" {
		t.Errorf("wrapLine wide = %q", got)
	}
	// escape sequences have no width
	got = wrapLine("\033[1mab\033[0mcd", 2)
	if len(got) != 2 || !strings.HasPrefix(got[0], "\033[1mab") {
		t.Errorf("wrapLine ansi = %q", got)
	}
	if got := wrapLine("", 5); len(got) != 1 || got[0] != "" {
		t.Errorf("wrapLine empty = %q", got)
	}
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("River and river", "river", "[", "]")
	if got != "[River] and [river]" {
		t.Errorf("highlight = %q", got)
	}
	if got := highlightKeywords("text", "", "[", "]"); got != "text" {
		t.Errorf("empty query = %q", got)
	}

	// escape sequences are left alone
	got = highlightKeywords("\033[1;34mrun 1\033[0m", "1 m", "<", ">")
	if got != "\033[1;34mrun <1>\033[0m" {
		t.Errorf("ansi = %q", got)
	}

	// markers from one term are not matched by another
	got = highlightKeywords("river", "river [ ]", "[", "]")
	if got != "[river]" {
		t.Errorf("rematch = %q", got)
	}

	// the longest term wins at a position
	got = highlightKeywords("riverside", "river riverside", "[", "]")
	if got != "[riverside]" {
		t.Errorf("longest = %q", got)
	}
}

func TestRenderChunk_ColoredQueryKeepsEscapes(t *testing.T) {
	path := writeChunk(t, `{"n": 31, "text": "m1"}`)

	out, _, err := RenderChunk(path, Options{HitEntry: 0, Query: "1 3 m ["})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, colorBoldRed+"1"+colorReset) {
		t.Errorf("query not highlighted:\n%q", out)
	}
	stripped := regexp.MustCompile(`\x1b\[[0-9;]*m`).ReplaceAllString(out, "")
	if strings.Contains(stripped, "\x1b") {
		t.Errorf("broken escape sequence:\n%q", out)
	}
	if !strings.Contains(stripped, `"n": 31`) || !strings.Contains(stripped, `"text": "m1"`) {
		t.Errorf("content changed:\n%s", stripped)
	}
}

func TestRenderChunk_Plain(t *testing.T) {
	path := writeChunk(t,
		`{"speaker":"user","text":"the river"}`,
		`{"speaker":"ai","text":"tell me more"}`,
	)

	out, hit, err := RenderChunk(path, Options{HitEntry: 1, Query: "river", Plain: true})
	if err != nil {
		t.Fatalf("RenderChunk: %v", err)
	}
	if strings.Contains(out, "\033[") {
		t.Error("plain output contains escape codes")
	}
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "--- E2  chunk 2  2 entries") {
		t.Errorf("header = %q", lines[0])
	}
	if hit < 0 || lines[hit] != ">> #1 <<" {
		t.Errorf("hit line %d = %q", hit, lines[hit])
	}
	if !strings.Contains(out, ">>>river<<<") {
		t.Errorf("query not highlighted:\n%s", out)
	}
	if !strings.Contains(out, `  "speaker": "ai"`) {
		t.Errorf("entries not pretty printed:\n%s", out)
	}
}

func TestRenderChunk_NoHit(t *testing.T) {
	path := writeChunk(t, `{"a": 1}`)
	_, hit, err := RenderChunk(path, Options{HitEntry: -1})
	if err != nil {
		t.Fatal(err)
	}
	if hit != -1 {
		t.Errorf("hit = %d, want -1", hit)
	}
}

func TestRenderChunk_Missing(t *testing.T) {
	if _, _, err := RenderChunk(filepath.Join(t.TempDir(), "chunk_001.json"), Options{}); err == nil {
		t.Fatal("expected error")
	}
}
