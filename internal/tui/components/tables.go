package components

import (
	serialdma "github.com/allbin/go-serial-dma"
	"github.com/allbin/go-serial-dma/internal/tui/colors"
	"github.com/allbin/go-serial-dma/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

var tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)

// StatsTable renders a static summary of port counters.
func StatsTable(ports []PortStats) table.Model {
	columns := make([]table.Column, len(statsColumns))
	for i, c := range statsColumns {
		columns[i] = table.NewColumn(c.key, c.title, c.width)
	}

	rows := make([]table.Row, 0, len(ports))
	for _, p := range ports {
		data := table.RowData{}
		for i, cell := range p.cells() {
			data[statsColumns[i].key] = cell
		}
		data["tx"] = table.NewStyledCell(p.TxState, styles.StateStyle(p.TxState))
		data["rx"] = table.NewStyledCell(p.RxState, styles.StateStyle(p.RxState))
		rows = append(rows, table.NewRow(data))
	}

	return table.New(columns).
		WithRows(rows).
		HeaderStyle(tableHeaderStyle).
		BorderRounded()
}

// DeviceTable renders discovered serial devices.
func DeviceTable(devices []serialdma.Device) table.Model {
	columns := []table.Column{
		table.NewColumn("path", "Device", 16),
		table.NewColumn("kind", "Kind", 12),
		table.NewColumn("driver", "Driver", 14),
		table.NewColumn("desc", "Description", 24),
	}

	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		driver := d.Driver
		if driver == "" {
			driver = "-"
		}
		rows = append(rows, table.NewRow(table.RowData{
			"path":   d.Path,
			"kind":   d.Kind,
			"driver": driver,
			"desc":   d.Description,
		}))
	}

	return table.New(columns).
		WithRows(rows).
		HeaderStyle(tableHeaderStyle).
		BorderRounded()
}
