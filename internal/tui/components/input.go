package components

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/allbin/go-serial-dma/internal/tui/colors"
	"github.com/allbin/go-serial-dma/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxHistory = 100

type SendMode int

const (
	SendASCII SendMode = iota
	SendHex
)

func (s SendMode) String() string {
	switch s {
	case SendHex:
		return "HEX"
	default:
		return "ASCII"
	}
}

var errEmptyInput = errors.New("empty input")

// ParseHex decodes hex input such as "48 65 6c", "0x48656C" or "de:ad".
func ParseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", "0x", "", "0X", "", ":", "").Replace(s)
	if s == "" {
		return nil, errEmptyInput
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even length (got %d digits)", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return b, nil
}

// Input is the single-line send box with history.
type Input struct {
	textInput    textinput.Model
	mode         SendMode
	history      []string
	historyIndex int
	draft        string // line being edited before history navigation began
	width        int
}

func NewInput() *Input {
	ti := textinput.New()
	ti.Placeholder = asciiPlaceholder
	ti.CharLimit = 1024
	ti.Prompt = "" // rendered by ViewWithMode

	return &Input{
		textInput:    ti,
		mode:         SendASCII,
		historyIndex: -1,
	}
}

const (
	asciiPlaceholder = "Type a line and press Enter to queue it..."
	hexPlaceholder   = "Enter hex (e.g. 48656C6C6F or 48 65 6C 6C 6F)..."
)

func (i *Input) SetWidth(width int) {
	i.width = width
	// border(2) + padding(2) + prompt(1) + space(1)
	i.textInput.Width = max(width-6, 20)
}

func (i *Input) Focus()        { i.textInput.Focus() }
func (i *Input) Blur()         { i.textInput.Blur() }
func (i *Input) Focused() bool { return i.textInput.Focused() }

func (i *Input) Value() string         { return i.textInput.Value() }
func (i *Input) SetValue(value string) { i.textInput.SetValue(value) }

func (i *Input) Mode() SendMode { return i.mode }

func (i *Input) ToggleMode() {
	if i.mode == SendASCII {
		i.mode = SendHex
		i.textInput.Placeholder = hexPlaceholder
		return
	}
	i.mode = SendASCII
	i.textInput.Placeholder = asciiPlaceholder
}

// Payload converts the current line into the bytes to queue. ASCII lines
// are terminated with a newline; hex lines are sent exactly as decoded.
func (i *Input) Payload() ([]byte, error) {
	value := i.textInput.Value()
	if i.mode == SendHex {
		return ParseHex(value)
	}
	if value == "" {
		return nil, errEmptyInput
	}
	return []byte(value + "\n"), nil
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

// ViewWithMode renders the bordered input line. Outside insert mode it shows
// a hint instead of the field.
func (i *Input) ViewWithMode(insert bool) string {
	promptSymbol, promptColor := ">", colors.Green
	if i.mode == SendHex {
		promptSymbol, promptColor = "#", colors.Yellow
	}
	prompt := lipgloss.NewStyle().Foreground(promptColor).Bold(true).Render(promptSymbol)

	var content string
	if insert {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", i.textInput.View())
	} else {
		hint := lipgloss.NewStyle().
			Foreground(colors.Overlay0).
			Render("Press 'i' to enter insert mode")
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", hint)
	}

	// RoundedBorder and the horizontal padding take four columns
	style := styles.InputStyle.
		Width(max(i.width-4, 10)).
		AlignHorizontal(lipgloss.Left)
	if insert {
		style = style.BorderForeground(colors.Green)
	}
	return style.Render(content)
}

// AddToHistory records a sent line unless it is blank or repeats the last one.
func (i *Input) AddToHistory(line string) {
	i.historyIndex = -1
	i.draft = ""

	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if n := len(i.history); n > 0 && i.history[n-1] == line {
		return
	}
	i.history = append(i.history, line)
	if len(i.history) > maxHistory {
		i.history = i.history[1:]
	}
}

// HistoryUp recalls the previous line.
func (i *Input) HistoryUp() {
	if len(i.history) == 0 {
		return
	}
	switch {
	case i.historyIndex == -1:
		i.draft = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	case i.historyIndex > 0:
		i.historyIndex--
	}
	i.textInput.SetValue(i.history[i.historyIndex])
}

// HistoryDown moves toward the newest line and finally restores the draft.
func (i *Input) HistoryDown() {
	if i.historyIndex == -1 {
		return
	}
	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}
	i.historyIndex = -1
	i.textInput.SetValue(i.draft)
	i.draft = ""
}
