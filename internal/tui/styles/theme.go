package styles

import (
	"github.com/allbin/go-serial-dma/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)

	// Channel state styles
	ActiveStyle = lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true)

	IdleStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0)

	PausedStyle = lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	HelpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 2)

	// Command output styles
	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Green)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)
)

// StateStyle picks the style for a channel state name. Idle states render
// dimmed; anything else counts as a leg in flight.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "idle":
		return IdleStyle
	case "":
		return IdleStyle
	default:
		return ActiveStyle
	}
}
