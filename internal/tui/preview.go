package tui

import (
	"fmt"

	"github.com/Zuo-Peng/dialogue-chunker/internal/render"
	"github.com/Zuo-Peng/dialogue-chunker/internal/search"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	key     string
	content string
	hitLine int
	err     error
}

func previewCacheKey(r search.Result) string {
	return fmt.Sprintf("%s:%d:%d", r.Namespace, r.ChunkNumber, r.EntryIndex)
}

// loadPreviewCmd renders the chunk file behind r off the update loop.
func loadPreviewCmd(r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.RenderChunk(r.FilePath, render.Options{
			HitEntry: r.EntryIndex,
			Width:    width,
			Query:    query,
		})
		return previewRenderedMsg{
			key:     previewCacheKey(r),
			content: content,
			hitLine: hitLine,
			err:     err,
		}
	}
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
