package components

import (
	"github.com/allbin/go-serial-dma/internal/tui/colors"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RingTable is the live, scrollable per-port view used by the monitor.
type RingTable struct {
	table table.Model
}

func NewRingTable(width, height int) *RingTable {
	// Ensure minimum dimensions for proper table initialization
	if height < 3 {
		height = 3
	}

	columns := make([]table.Column, len(statsColumns))
	for i, c := range statsColumns {
		columns[i] = table.Column{Title: c.title, Width: c.width}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
		table.WithWidth(width),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colors.Subtext0).
		BorderBottom(true).
		Bold(true).
		Foreground(colors.Text)
	s.Selected = s.Selected.
		Foreground(colors.Text).
		Background(colors.Surface1).
		Bold(false)
	t.SetStyles(s)

	return &RingTable{table: t}
}

func (rt *RingTable) SetSize(width, height int) {
	if height < 3 {
		height = 3
	}
	rt.table.SetWidth(width)
	rt.table.SetHeight(height)
	rt.table.UpdateViewport()
}

// SetPorts replaces the rows with a fresh sample.
func (rt *RingTable) SetPorts(ports []PortStats) {
	rows := make([]table.Row, len(ports))
	for i, p := range ports {
		rows[i] = table.Row(p.cells())
	}
	rt.table.SetRows(rows)
}

// Rows returns the number of ports shown.
func (rt *RingTable) Rows() int {
	return len(rt.table.Rows())
}

// Selected returns the port ID under the cursor, or "" if there is none.
func (rt *RingTable) Selected() string {
	row := rt.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (rt *RingTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	rt.table, cmd = rt.table.Update(msg)
	return cmd
}

func (rt *RingTable) View() string {
	return rt.table.View()
}
