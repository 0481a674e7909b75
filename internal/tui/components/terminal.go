package components

import (
	"strings"
	"time"

	"github.com/allbin/go-serial-dma/internal/tui/colors"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxEntries bounds the scroll-back.
const maxEntries = 2000

// entry is either a chunk of traffic or a note from the terminal itself.
type entry struct {
	chunk Chunk
	note  string
}

// Terminal is the scrolling traffic view of the connect screen. It keeps
// the raw chunks so a display toggle re-renders the whole history.
type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	entries   []entry
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(true, true),
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = max(height, 1)
}

// AddChunk appends traffic and scrolls to it.
func (t *Terminal) AddChunk(c Chunk) {
	t.append(entry{chunk: c})
}

// AddNote appends a status line, such as a send error.
func (t *Terminal) AddNote(at time.Time, text string) {
	t.append(entry{chunk: Chunk{Timestamp: at}, note: text})
}

func (t *Terminal) append(e entry) {
	t.entries = append(t.entries, e)
	if len(t.entries) > maxEntries {
		t.entries = t.entries[len(t.entries)-maxEntries:]
	}
	t.render()
}

func (t *Terminal) render() {
	lines := make([]string, len(t.entries))
	for i, e := range t.entries {
		lines[i] = t.format(e)
	}
	t.viewport.SetContent(strings.Join(lines, "\n"))
	t.viewport.GotoBottom()
}

func (t *Terminal) format(e entry) string {
	if e.note == "" {
		return t.formatter.FormatChunk(e.chunk)
	}
	note := lipgloss.NewStyle().Foreground(colors.Yellow).Render("-- " + e.note)
	if !t.formatter.GetDisplayMode().ShowTimestamps {
		return note
	}
	ts := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render("[" + e.chunk.Timestamp.Format("15:04:05.000") + "]")
	return ts + " " + note
}

func (t *Terminal) Len() int { return len(t.entries) }

func (t *Terminal) Clear() {
	t.entries = nil
	t.viewport.SetContent("")
}

func (t *Terminal) ToggleHex()        { t.toggle(func(m *DisplayMode) { m.ShowHex = !m.ShowHex }) }
func (t *Terminal) ToggleASCII()      { t.toggle(func(m *DisplayMode) { m.ShowASCII = !m.ShowASCII }) }
func (t *Terminal) ToggleTimestamps() { t.toggle(func(m *DisplayMode) { m.ShowTimestamps = !m.ShowTimestamps }) }

func (t *Terminal) toggle(flip func(*DisplayMode)) {
	mode := t.formatter.GetDisplayMode()
	flip(&mode)
	t.formatter.SetDisplayMode(mode)
	t.render()
}

func (t *Terminal) GetDisplayMode() DisplayMode {
	return t.formatter.GetDisplayMode()
}

func (t *Terminal) GotoTop()    { t.viewport.GotoTop() }
func (t *Terminal) GotoBottom() { t.viewport.GotoBottom() }

// Update lets the viewport handle scrolling keys and the mouse wheel.
func (t *Terminal) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return cmd
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
