package components

import (
	"fmt"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/allbin/go-serial-dma/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// LineInfo is the line configuration shown in the status bar.
type LineInfo struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   serialdma.Parity
}

func NewLineInfo(c serialdma.Config) LineInfo {
	return LineInfo{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
	}
}

func (l LineInfo) String() string {
	return fmt.Sprintf("%d baud %d%s%d", l.BaudRate, l.DataBits, parityLetter(l.Parity), l.StopBits)
}

func parityLetter(p serialdma.Parity) string {
	switch p {
	case serialdma.ParityOdd:
		return "O"
	case serialdma.ParityEven:
		return "E"
	default:
		return "N"
	}
}

type connState int

const (
	stateConnecting connState = iota
	stateConnected
	stateDown
)

// StatusBar is the bottom line of the connect screen: input mode, device,
// connection state, ring occupancy and line settings.
type StatusBar struct {
	device string
	line   LineInfo
	state  connState
	err    error
	width  int
	ports  *PortStats
}

func NewStatusBar(device string, line LineInfo) *StatusBar {
	return &StatusBar{device: device, line: line}
}

func (sb *StatusBar) SetWidth(width int) { sb.width = width }

func (sb *StatusBar) SetConnected() {
	sb.state = stateConnected
	sb.err = nil
}

// SetDown records why the port could not be opened or stopped working.
func (sb *StatusBar) SetDown(err error) {
	sb.state = stateDown
	sb.err = err
}

func (sb *StatusBar) Err() error { return sb.err }

// SetPortStats replaces the ring sample shown in the bar.
func (sb *StatusBar) SetPortStats(ps PortStats) { sb.ports = &ps }

// RingSummary renders the occupancy of both rings, or "" before the first
// sample.
func (sb *StatusBar) RingSummary() string {
	if sb.ports == nil {
		return ""
	}
	p := sb.ports
	s := fmt.Sprintf("TX %d/%d %s  RX %d/%d %s",
		p.TxUsed, p.TxCapacity, p.TxState, p.RxUsed, p.RxCapacity, p.RxState)
	if declined := p.Stats.TxSubmitFailures + p.Stats.RxSubmitFailures; declined > 0 {
		s += fmt.Sprintf("  declined %d", declined)
	}
	return s
}

func (sb *StatusBar) View(insert bool, mode SendMode, clock string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeStyle := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(colors.Blue).
		Bold(true).
		Padding(0, 1)
	modeText := "NORMAL"
	if insert {
		modeStyle = modeStyle.Background(colors.Green)
		modeText = "INSERT"
	}

	device := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.device)

	var indicator string
	switch sb.state {
	case stateConnected:
		indicator = lipgloss.NewStyle().Foreground(colors.Green).Render("●")
	case stateDown:
		indicator = lipgloss.NewStyle().Foreground(colors.Red).Render("✗")
	default:
		indicator = lipgloss.NewStyle().Foreground(colors.Yellow).Render("○")
	}

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{modeStyle.Render(modeText), device, indicator}
	if insert {
		left = append(left, lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", mode)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	detail := "⚡ " + sb.line.String()
	if ring := sb.RingSummary(); ring != "" {
		detail = ring + "  " + detail
	}
	if sb.state == stateDown && sb.err != nil {
		detail = sb.err.Error()
	}
	detailStyle := lipgloss.NewStyle().Foreground(colors.Subtext0).Padding(0, 1)
	if sb.state == stateDown {
		detailStyle = detailStyle.Foreground(colors.Red)
	}

	rightSide := lipgloss.JoinHorizontal(lipgloss.Left,
		detailStyle.Render(detail),
		divider,
		lipgloss.NewStyle().Foreground(colors.Text).Padding(0, 1).Render(clock),
	)

	spacer := lipgloss.NewStyle().
		Width(max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 1)).
		Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
