package models

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/allbin/go-serial-dma/internal/tui/components"
	"github.com/allbin/go-serial-dma/internal/tui/keys"
	"github.com/allbin/go-serial-dma/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	sendTimeout  = 5 * time.Second
	statsRefresh = 250 * time.Millisecond
)

// ConnectedMsg reports the outcome of opening the port.
type ConnectedMsg struct {
	Port *serialdma.Port
	Err  error
}

// ReceivedMsg carries one batch drained from the receive ring.
type ReceivedMsg struct {
	Chunk components.Chunk
}

// ReadErrMsg ends the receive loop.
type ReadErrMsg struct {
	Err error
}

// SentMsg reports how much of a line was queued.
type SentMsg struct {
	N   int
	Err error
}

// StatsTickMsg asks for a fresh ring sample.
type StatsTickMsg time.Time

// ConnectModel is an interactive terminal over one port. Typed lines are
// queued with WriteContext; a read loop drains the receive ring into the
// scroll-back.
type ConnectModel struct {
	device   string
	port     *serialdma.Port
	terminal *components.Terminal
	input    *components.Input
	status   *components.StatusBar
	help     help.Model
	keys     keys.ConnectKeys

	insert bool
	ready  bool
	now    func() time.Time

	// Sends run one at a time so lines longer than the ring never interleave.
	sendMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewConnectModel(device string, line components.LineInfo) *ConnectModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectModel{
		device:   device,
		terminal: components.NewTerminal(0, 0), // sized by the first WindowSizeMsg
		input:    components.NewInput(),
		status:   components.NewStatusBar(device, line),
		help:     help.New(),
		keys:     keys.NewConnectKeys(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Context is cancelled when the terminal quits; it bounds every read and send.
func (m *ConnectModel) Context() context.Context { return m.ctx }

func (m *ConnectModel) Cancel() { m.cancel() }

func (m *ConnectModel) Terminal() *components.Terminal { return m.terminal }
func (m *ConnectModel) Input() *components.Input       { return m.input }
func (m *ConnectModel) Status() *components.StatusBar  { return m.status }
func (m *ConnectModel) IsInsertMode() bool             { return m.insert }

func (m *ConnectModel) Init() tea.Cmd {
	return nil
}

func (m *ConnectModel) readCmd() tea.Cmd {
	port, ctx := m.port, m.ctx
	return func() tea.Msg {
		buf := make([]byte, port.Rx().Capacity())
		n, err := port.ReadContext(ctx, buf)
		if err != nil {
			return ReadErrMsg{Err: err}
		}
		return ReceivedMsg{Chunk: components.Chunk{
			Timestamp: time.Now(),
			Data:      buf[:n],
			Direction: components.DirectionRX,
		}}
	}
}

// writeCmd queues data in pieces no larger than the transmit ring.
func (m *ConnectModel) writeCmd(data []byte) tea.Cmd {
	port, parent := m.port, m.ctx
	return func() tea.Msg {
		m.sendMu.Lock()
		defer m.sendMu.Unlock()

		ctx, cancel := context.WithTimeout(parent, sendTimeout)
		defer cancel()

		size := port.Tx().Capacity()
		sent := 0
		for sent < len(data) {
			n, err := port.WriteContext(ctx, data[sent:min(sent+size, len(data))])
			sent += n
			if err != nil {
				return SentMsg{N: sent, Err: err}
			}
		}
		return SentMsg{N: sent}
	}
}

func (m *ConnectModel) statsTick() tea.Cmd {
	return tea.Tick(statsRefresh, func(t time.Time) tea.Msg { return StatsTickMsg(t) })
}

func (m *ConnectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Input box takes three lines, the border and status bar one each
		m.terminal.SetSize(msg.Width, msg.Height-5)
		m.input.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)
		m.ready = true
		return m, nil

	case ConnectedMsg:
		if msg.Err != nil {
			m.status.SetDown(msg.Err)
			m.terminal.AddNote(m.now(), "open failed: "+msg.Err.Error())
			return m, nil
		}
		m.port = msg.Port
		m.status.SetConnected()
		m.status.SetPortStats(components.NewPortStats(m.port))
		m.terminal.AddNote(m.now(), fmt.Sprintf("connected to %s, tx ring %d bytes, rx ring %d bytes",
			m.device, m.port.Tx().Capacity(), m.port.Rx().Capacity()))
		return m, tea.Batch(m.readCmd(), m.statsTick())

	case ReceivedMsg:
		m.terminal.AddChunk(msg.Chunk)
		return m, m.readCmd()

	case ReadErrMsg:
		if m.ctx.Err() != nil || errors.Is(msg.Err, serialdma.ErrPortClosed) {
			return m, nil
		}
		m.status.SetDown(msg.Err)
		m.terminal.AddNote(m.now(), "receive stopped: "+msg.Err.Error())
		return m, nil

	case SentMsg:
		if msg.Err != nil && m.ctx.Err() == nil {
			m.terminal.AddNote(m.now(), fmt.Sprintf("send failed after %d bytes: %v", msg.N, msg.Err))
			if errors.Is(msg.Err, serialdma.ErrLineDown) {
				m.status.SetDown(msg.Err)
			}
		}
		return m, nil

	case StatsTickMsg:
		if m.port == nil {
			return m, nil
		}
		m.status.SetPortStats(components.NewPortStats(m.port))
		return m, m.statsTick()

	case tea.KeyMsg:
		if m.insert {
			return m.updateInsert(msg)
		}
		return m.updateNormal(msg)

	case tea.MouseMsg:
		return m, m.terminal.Update(msg)
	}
	return m, nil
}

func (m *ConnectModel) updateInsert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Interrupt):
		return m.quit()
	case key.Matches(msg, m.keys.Escape):
		m.insert = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		return m, m.send()
	case key.Matches(msg, m.keys.HistoryUp):
		m.input.HistoryUp()
		return m, nil
	case key.Matches(msg, m.keys.HistoryDown):
		m.input.HistoryDown()
		return m, nil
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleMode()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *ConnectModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.InsertMode):
		m.insert = true
		m.input.Focus()
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleMode()
	case key.Matches(msg, m.keys.ToggleHex):
		m.terminal.ToggleHex()
	case key.Matches(msg, m.keys.ToggleASCII):
		m.terminal.ToggleASCII()
	case key.Matches(msg, m.keys.ToggleTimestamps):
		m.terminal.ToggleTimestamps()
	case key.Matches(msg, m.keys.Clear):
		m.terminal.Clear()
	case key.Matches(msg, m.keys.GotoTop):
		m.terminal.GotoTop()
	case key.Matches(msg, m.keys.GotoBottom):
		m.terminal.GotoBottom()
	default:
		// Arrow, page and j/k keys scroll the history
		return m, m.terminal.Update(msg)
	}
	return m, nil
}

// send queues the input line and echoes it as TX.
func (m *ConnectModel) send() tea.Cmd {
	line := m.input.Value()
	data, err := m.input.Payload()
	if err != nil {
		if line != "" {
			m.terminal.AddNote(m.now(), "not sent: "+err.Error())
		}
		return nil
	}
	if m.port == nil {
		m.terminal.AddNote(m.now(), "not sent: port is not open")
		return nil
	}

	m.terminal.AddChunk(components.Chunk{
		Timestamp: m.now(),
		Data:      data,
		Direction: components.DirectionTX,
	})
	m.input.AddToHistory(line)
	m.input.SetValue("")
	return m.writeCmd(data)
}

func (m *ConnectModel) quit() (tea.Model, tea.Cmd) {
	m.Cancel()
	return m, tea.Quit
}

func (m *ConnectModel) View() string {
	content := "Initializing..."
	if m.ready {
		content = m.terminal.View()
	}

	parts := []string{
		styles.ContentBorderStyle.Render(content),
		m.input.ViewWithMode(m.insert),
		m.status.View(m.insert, m.input.Mode(), m.now().Format("15:04:05")),
	}
	if m.help.ShowAll {
		parts = append(parts, styles.HelpBoxStyle.Render(m.help.View(m.keys)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
