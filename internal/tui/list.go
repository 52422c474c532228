package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Zuo-Peng/dialogue-chunker/internal/search"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No chunks")
	}

	var lines []string
	for i := m.listOffset; i < len(m.results); i++ {
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatResultLine(m.results[i], width, i == m.cursor)...)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatResultLine formats a chunk as two lines:
//
//	line 1: [>] namespace  E3  #entry
//	line 2:    snippet (dimmed)
func formatResultLine(r search.Result, width int, selected bool) []string {
	ns := filepath.Base(r.Namespace)
	nsMax := max(width-len(r.SessionID)-10, 4)
	if runewidth.StringWidth(ns) > nsMax {
		ns = runewidth.Truncate(ns, nsMax, "…")
	}
	head := fmt.Sprintf("%s %s", styleNamespace.Render(ns), styleSession.Render(r.SessionID))
	if r.EntryIndex >= 0 {
		head += fmt.Sprintf(" #%d", r.EntryIndex)
	}

	var line1 string
	if selected {
		line1 = styleListSelected.Render("> ") + head
	} else {
		line1 = "  " + head
	}

	snippet := strings.NewReplacer("\n", " ", "\t", " ", ">>>", "", "<<<", "").Replace(r.Snippet)
	snippetMax := max(width-4, 0)
	if runewidth.StringWidth(snippet) > snippetMax {
		snippet = runewidth.Truncate(snippet, snippetMax, "")
	}
	line2 := "    " + styleSnippet.Render(snippet)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := max(listHeight/linesPerItem, 1)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
