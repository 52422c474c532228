package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
	"github.com/mattn/go-runewidth"
	"github.com/tidwall/pretty"
)

const (
	colorReset   = "\033[0m"
	colorHeader  = "\033[1;34m" // bold blue
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // keyword highlights
)

type Options struct {
	HitEntry int    // entry index to mark, -1 for none
	Width    int    // wrap width (0 = no wrap)
	Query    string // keywords to highlight
	Plain    bool   // no ANSI colors; matches are wrapped in >>> <<<
}

// highlightKeywords marks case-insensitive matches of the query terms in one
// pass. ANSI escape sequences are copied through untouched, and inserted
// markers are never matched again.
func highlightKeywords(text, query, open, close string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return text
	}

	var b strings.Builder
	for i := 0; i < len(text); {
		if j := escapeEnd(text, i); j > i {
			b.WriteString(text[i:j])
			i = j
			continue
		}
		if n := matchTerm(text[i:], terms); n > 0 {
			b.WriteString(open + text[i:i+n] + close)
			i += n
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

// escapeEnd returns the end of the ANSI escape sequence starting at i, or i.
func escapeEnd(s string, i int) int {
	if i+1 >= len(s) || s[i] != '\033' || s[i+1] != '[' {
		return i
	}
	j := i + 2
	for j < len(s) && s[j] != 'm' {
		j++
	}
	if j < len(s) {
		j++
	}
	return j
}

// matchTerm returns the byte length of the longest term s starts with.
func matchTerm(s string, terms []string) int {
	best := 0
	for _, t := range terms {
		if len(t) > best && len(t) <= len(s) && strings.EqualFold(s[:len(t)], t) {
			best = len(t)
		}
	}
	return best
}

func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks line into pieces of at most maxWidth visible columns,
// skipping ANSI escape sequences when measuring.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	for i := 0; i < len(line); {
		if j := escapeEnd(line, i); j > i {
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)
		if visW+rw > maxWidth && visW > 0 {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}
		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}
	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// RenderChunk renders the chunk file at path and returns the content and the
// 0-based line of the hit entry's header (-1 if there is none).
func RenderChunk(path string, opts Options) (string, int, error) {
	f, err := chunk.ReadFile(path)
	if err != nil {
		return "", -1, fmt.Errorf("read chunk: %w", err)
	}

	paint := func(color, s string) string {
		if opts.Plain {
			return s
		}
		return color + s + colorReset
	}
	hlOpen, hlClose := colorBoldRed, colorReset
	if opts.Plain {
		hlOpen, hlClose = ">>>", "<<<"
	}

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	md := f.Metadata
	writeLine(paint(colorHeader, fmt.Sprintf("--- %s  chunk %d  %d entries ---", md.SessionID, md.ChunkNumber, md.EntryCount)))
	if len(f.Entries) == 0 {
		writeLine(paint(colorDim, "(empty chunk)"))
		return b.String(), -1, nil
	}

	for i, e := range f.Entries {
		label := fmt.Sprintf("#%d", i)
		if i == opts.HitEntry {
			hitLine = lineCount
			if opts.Plain {
				writeLine(">> " + label + " <<")
			} else {
				writeLine(colorHit + ">> " + label + " <<" + colorReset)
			}
		} else {
			writeLine(paint(colorDim, label))
		}

		body := pretty.Pretty(e)
		if !opts.Plain {
			body = pretty.Color(body, nil)
		}
		text := strings.TrimRight(string(body), "\n")
		if opts.Query != "" {
			text = highlightKeywords(text, opts.Query, hlOpen, hlClose)
		}
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			writeLine(tl)
		}
		writeLine("")
	}

	return b.String(), hitLine, nil
}
