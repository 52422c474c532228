package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zuo-Peng/dialogue-chunker/internal/index"
	"github.com/Zuo-Peng/dialogue-chunker/internal/open"
	"github.com/Zuo-Peng/dialogue-chunker/internal/search"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const debounceDelay = 200 * time.Millisecond

type resultsMsg struct {
	query   string
	results []search.Result
	err     error
}

type debounceTickMsg struct {
	query string
}

// exitAction is what Run does with the selected chunk after the TUI exits.
type exitAction int

const (
	actionNone exitAction = iota
	actionCopy
	actionEdit
)

type model struct {
	db          *index.DB
	opts        search.Options
	query       string
	results     []search.Result
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string
	width       int
	height      int
	ready       bool
	quitting    bool
	selected    *search.Result
	action      exitAction
}

func newModel(db *index.DB, opts search.Options) model {
	ti := textinput.New()
	ti.Placeholder = "Filter chunks..."
	ti.Focus()
	ti.SetValue(opts.Query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		db:          db,
		opts:        opts,
		query:       opts.Query,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
}

// Run starts the chunk browser and blocks until it exits. With an empty
// query every indexed chunk is listed; typing narrows the list with a
// full-text search. Enter copies the selected chunk's path to the clipboard;
// C-o opens the chunk in $EDITOR at the first line matching the filter.
func Run(db *index.DB, opts search.Options) error {
	p := tea.NewProgram(newModel(db, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := final.(model)
	if fm.selected == nil {
		return nil
	}
	path := fm.selected.FilePath
	if fm.action == actionEdit {
		return open.OpenChunk(path, fm.query)
	}
	if err := clipboard.WriteAll(path); err != nil {
		fmt.Println(path)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", path)
	return nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load(m.query))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case debounceTickMsg:
		if msg.query != m.query {
			return m, nil
		}
		return m, m.load(msg.query)

	case resultsMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.cursor = 0
		m.listOffset = 0
		m.previewKey = ""
		if msg.err != nil {
			m.results = nil
			m.preview.SetContent("Error: " + msg.err.Error())
			return m, nil
		}
		m.results = msg.results
		if len(m.results) == 0 {
			m.preview.SetContent("")
			return m, nil
		}
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		r, ok := m.current()
		if !ok || msg.key != previewCacheKey(r) || msg.key == m.previewKey {
			return m, nil
		}
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			m.preview.SetContent(msg.content)
			if msg.hitLine > 0 {
				m.preview.SetYOffset(msg.hitLine)
			} else {
				m.preview.GotoTop()
			}
		}
		m.previewKey = msg.key
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Copy):
		return m.exit(actionCopy)

	case key.Matches(msg, keys.Edit):
		return m.exit(actionEdit)

	case key.Matches(msg, keys.Up):
		return m.moveCursor(m.cursor - 1)

	case key.Matches(msg, keys.Down):
		return m.moveCursor(m.cursor + 1)

	case key.Matches(msg, keys.First):
		return m.moveCursor(0)

	case key.Matches(msg, keys.Last):
		return m.moveCursor(len(m.results) - 1)

	case key.Matches(msg, keys.PreviewUp):
		m.preview.LineUp(m.panelHeight() / 2)
		return m, nil

	case key.Matches(msg, keys.PreviewDn):
		m.preview.LineDown(m.panelHeight() / 2)
		return m, nil

	case key.Matches(msg, keys.PageUp):
		m.preview.LineUp(m.panelHeight())
		return m, nil

	case key.Matches(msg, keys.PageDown):
		m.preview.LineDown(m.panelHeight())
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if q := m.filterInput.Value(); q != m.query {
		m.query = q
		return m, tea.Batch(cmd, scheduleDebounce(q))
	}
	return m, cmd
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || len(m.results) == 0 {
		return m, nil
	}

	region, idx := m.hitTest(msg.X, msg.Y)
	switch {
	case region == regionList && msg.Button == tea.MouseButtonWheelUp:
		if m.listOffset > 0 {
			m.listOffset--
		}
	case region == regionList && msg.Button == tea.MouseButtonWheelDown:
		maxOffset := max(len(m.results)-m.panelHeight()/linesPerItem, 0)
		if m.listOffset < maxOffset {
			m.listOffset++
		}
	case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if idx != m.cursor {
			return m.moveCursor(idx)
		}
	case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}
	return m, nil
}

// exit quits with the current chunk selected for action.
func (m model) exit(action exitAction) (tea.Model, tea.Cmd) {
	r, ok := m.current()
	if !ok {
		return m, nil
	}
	m.selected = &r
	m.action = action
	m.quitting = true
	return m, tea.Quit
}

// moveCursor selects result i if it exists and loads its preview.
func (m model) moveCursor(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(m.results) {
		return m, nil
	}
	m.cursor = i
	m.adjustListScroll(m.panelHeight())
	return m, m.loadCurrentPreview()
}

func (m model) current() (search.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.cursor], true
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	panelH := m.panelHeight()
	listPanel := stylePanelBorder.
		Width(m.listWidth()).
		Height(panelH).
		Render(m.renderList(m.listWidth(), panelH))

	m.preview.Width = m.previewWidth()
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(m.previewWidth()).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	return max(m.width*40/100-4, 20)
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width*60/100-4, 20)
}

// panelHeight leaves room for the input row, the status bar and both borders.
func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(m.height-6, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	top := 2 // input row + top border
	if y < top || y > top+m.panelHeight()-1 {
		return regionNone, -1
	}

	lw := m.listWidth()
	switch {
	case x >= 1 && x <= lw:
		return regionList, m.listOffset + (y-top)/linesPerItem
	case x > lw+2:
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	parts := []string{fmt.Sprintf("%d chunks", len(m.results))}
	for _, b := range keys.statusHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// load lists every chunk for an empty query and searches entry text otherwise.
func (m model) load(query string) tea.Cmd {
	db := m.db
	opts := m.opts
	opts.Query = query
	return func() tea.Msg {
		var (
			results []search.Result
			err     error
		)
		if strings.TrimSpace(query) == "" {
			results, err = search.ListChunks(db, opts)
		} else {
			results, err = search.Search(db, opts)
		}
		return resultsMsg{query: query, results: results, err: err}
	}
}

func scheduleDebounce(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	r, ok := m.current()
	if !ok || previewCacheKey(r) == m.previewKey {
		return nil
	}
	return loadPreviewCmd(r, m.query, m.previewWidth())
}
