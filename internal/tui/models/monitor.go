package models

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/allbin/go-serial-dma/internal/tui/components"
	"github.com/allbin/go-serial-dma/internal/tui/keys"
	"github.com/allbin/go-serial-dma/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	minRefresh     = 50 * time.Millisecond
	maxRefresh     = 2 * time.Second
	defaultRefresh = 200 * time.Millisecond
)

// TickMsg asks the monitor to sample its ports again.
type TickMsg time.Time

// StatsSource samples the ports to display.
type StatsSource func() []components.PortStats

// MonitorModel shows live ring occupancy and channel counters.
type MonitorModel struct {
	title   string
	source  StatsSource
	onPause func(paused bool)

	table   *components.RingTable
	help    help.Model
	keys    keys.MonitorKeys
	refresh time.Duration
	started time.Time
	ports   []components.PortStats

	paused bool
	width  int

	// Cancellation and synchronization
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

// NewMonitorModel returns a monitor over source. onPause, if set, is called
// whenever the user toggles traffic.
func NewMonitorModel(title string, source StatsSource, onPause func(paused bool)) *MonitorModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &MonitorModel{
		title:   title,
		source:  source,
		onPause: onPause,
		table:   components.NewRingTable(120, 6),
		help:    help.New(),
		keys:    keys.NewMonitorKeys(),
		refresh: defaultRefresh,
		started: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Context is cancelled when the monitor quits.
func (m *MonitorModel) Context() context.Context {
	return m.ctx
}

func (m *MonitorModel) Cancel() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *MonitorModel) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Refresh returns the current sampling interval.
func (m *MonitorModel) Refresh() time.Duration {
	return m.refresh
}

// Ports returns the last sample.
func (m *MonitorModel) Ports() []components.PortStats {
	return m.ports
}

func (m *MonitorModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *MonitorModel) sample() {
	m.ports = m.source()
	m.table.SetPorts(m.ports)
}

func (m *MonitorModel) Init() tea.Cmd {
	m.sample()
	return m.tick()
}

func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		// Title, subtitle, border and help take six lines
		m.table.SetSize(msg.Width, msg.Height-6)
		return m, nil

	case TickMsg:
		m.sample()
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cancel()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Pause):
			m.mu.Lock()
			m.paused = !m.paused
			paused := m.paused
			m.mu.Unlock()
			if m.onPause != nil {
				m.onPause(paused)
			}
			return m, nil

		case key.Matches(msg, m.keys.Faster):
			m.refresh = max(m.refresh/2, minRefresh)
			return m, nil

		case key.Matches(msg, m.keys.Slower):
			m.refresh = min(m.refresh*2, maxRefresh)
			return m, nil
		}
	}

	return m, m.table.Update(msg)
}

func (m *MonitorModel) View() string {
	var rx, tx uint64
	for _, p := range m.ports {
		rx += p.Stats.RxBytes
		tx += p.Stats.TxBytes
	}

	status := styles.ActiveStyle.Render("RUNNING")
	if m.IsPaused() {
		status = styles.PausedStyle.Render("PAUSED")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.TitleStyle.Render(m.title), " ", status)
	sub := styles.SubtitleStyle.Render(fmt.Sprintf(
		"up %s  refresh %s  tx %d B  rx %d B",
		time.Since(m.started).Truncate(time.Second), m.refresh, tx, rx))

	helpView := m.help.View(m.keys)
	if m.help.ShowAll {
		helpView = styles.HelpBoxStyle.Render(helpView)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		sub,
		styles.ContentBorderStyle.Render(m.table.View()),
		helpView,
	)
}
