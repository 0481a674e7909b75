package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-serial-dma/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// Direction tells which ring a chunk passed through.
type Direction int

const (
	DirectionRX Direction = iota
	DirectionTX
)

// Chunk is one batch of bytes drained from or queued on a port.
type Chunk struct {
	Timestamp time.Time
	Data      []byte
	Direction Direction
}

type DisplayMode struct {
	ShowHex        bool
	ShowASCII      bool
	ShowTimestamps bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:        showHex,
			ShowASCII:      showASCII,
			ShowTimestamps: true,
		},
	}
}

func (df *DataFormatter) SetDisplayMode(mode DisplayMode) {
	df.mode = mode
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) FormatChunk(c Chunk) string {
	var parts []string

	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", c.Data))
	}
	if df.mode.ShowASCII {
		parts = append(parts, "ASCII: "+Printable(c.Data))
	}
	// If both are disabled, show the byte count
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(c.Data)))
	}

	line := directionIndicator(c.Direction) + ": " + strings.Join(parts, "  ")
	if !df.mode.ShowTimestamps {
		return line
	}

	ts := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render("[" + c.Timestamp.Format("15:04:05.000") + "]")
	return ts + " " + line
}

func directionIndicator(d Direction) string {
	if d == DirectionTX {
		return lipgloss.NewStyle().Foreground(colors.Peach).Bold(true).Render("↗ TX")
	}
	return lipgloss.NewStyle().Foreground(colors.Sky).Bold(true).Render("↙ RX")
}

// Printable replaces bytes outside printable ASCII with dots so that data
// never carries terminal control sequences.
func Printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
