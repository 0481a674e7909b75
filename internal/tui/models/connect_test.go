package models

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/allbin/go-serial-dma/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
)

// newConnectModel returns a sized model connected to one end of a loopback
// pair, plus the far end.
func newConnectModel(t *testing.T) (*ConnectModel, *serialdma.Port) {
	t.Helper()
	ea, eb := serialdma.NewLoopbackPair()
	reg := serialdma.NewRegistry(2)
	near, err := reg.InitPort("near", ea, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	far, err := reg.InitPort("far", eb, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { reg.Close() })

	m := NewConnectModel("near", components.LineInfo{BaudRate: 115200, DataBits: 8, StopBits: 1})
	t.Cleanup(m.Cancel)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 30})

	if _, cmd := m.Update(ConnectedMsg{Port: near}); cmd == nil {
		t.Fatal("connecting did not start the read loop")
	}
	return m, far
}

// runCmd executes cmd with a deadline so a stuck read fails the test.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("command did not finish")
		return nil
	}
}

func TestConnectModelReceives(t *testing.T) {
	m, far := newConnectModel(t)

	if _, err := far.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	msg, ok := runCmd(t, m.readCmd()).(ReceivedMsg)
	if !ok {
		t.Fatalf("read loop returned %T", msg)
	}
	if string(msg.Chunk.Data) != "ping" || msg.Chunk.Direction != components.DirectionRX {
		t.Fatalf("chunk = %+v", msg.Chunk)
	}

	if _, cmd := m.Update(msg); cmd == nil {
		t.Error("read loop not re-armed after a chunk")
	}
	if view := m.View(); !strings.Contains(view, "ASCII: ping") {
		t.Errorf("view missing received data:\n%s", view)
	}
}

func TestConnectModelSendsLine(t *testing.T) {
	m, far := newConnectModel(t)

	m.Update(runeKey('i'))
	if !m.IsInsertMode() {
		t.Fatal("'i' did not enter insert mode")
	}
	m.Input().SetValue("hello")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter did not queue the line")
	}
	sent, ok := runCmd(t, cmd).(SentMsg)
	if !ok || sent.Err != nil || sent.N != 6 {
		t.Fatalf("send = %+v", sent)
	}
	if m.Input().Value() != "" {
		t.Errorf("input not cleared: %q", m.Input().Value())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var got []byte
	buf := make([]byte, 16)
	for len(got) < 6 {
		n, err := far.ReadContext(ctx, buf)
		if err != nil {
			t.Fatalf("far end: %v (got %q)", err, got)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "hello\n" {
		t.Errorf("far end read %q", got)
	}
	if !strings.Contains(m.View(), "ASCII: hello.") {
		t.Errorf("sent line not echoed:\n%s", m.View())
	}
}

func TestConnectModelSendsLongerThanRing(t *testing.T) {
	m, far := newConnectModel(t)

	line := strings.Repeat("x", 150)
	m.Update(runeKey('i'))
	m.Input().SetValue(line)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	sent := make(chan tea.Msg, 1)
	go func() { sent <- cmd() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var got []byte
	buf := make([]byte, 64)
	for len(got) < len(line)+1 {
		n, err := far.ReadContext(ctx, buf)
		if err != nil {
			t.Fatalf("far end: %v after %d bytes", err, len(got))
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != line+"\n" {
		t.Error("far end received a different line")
	}
	if msg := (<-sent).(SentMsg); msg.Err != nil || msg.N != len(line)+1 {
		t.Errorf("send = %+v", msg)
	}
}

func TestConnectModelInvalidHex(t *testing.T) {
	m, _ := newConnectModel(t)

	m.Update(runeKey('i'))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.Input().Mode() != components.SendHex {
		t.Fatal("tab did not switch to hex input")
	}
	m.Input().SetValue("zz")

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("invalid hex was queued")
	}
	if !strings.Contains(m.View(), "not sent") {
		t.Errorf("no error note:\n%s", m.View())
	}
	if m.Input().Value() != "zz" {
		t.Error("rejected input was cleared")
	}
}

func TestConnectModelConnectionErrors(t *testing.T) {
	tests := []struct {
		name     string
		msg      tea.Msg
		wantDown bool
		wantNote string
	}{
		{
			name:     "open failed",
			msg:      ConnectedMsg{Err: serialdma.ErrDeviceNotFound},
			wantDown: true,
			wantNote: "open failed",
		},
		{
			name:     "line down",
			msg:      ReadErrMsg{Err: fmt.Errorf("%w: /dev/ttyUSB0: hangup", serialdma.ErrLineDown)},
			wantDown: true,
			wantNote: "receive stopped",
		},
		{
			name: "closed on exit",
			msg:  ReadErrMsg{Err: serialdma.ErrPortClosed},
		},
		{
			name:     "send timed out",
			msg:      SentMsg{N: 3, Err: context.DeadlineExceeded},
			wantNote: "send failed after 3 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConnectModel("/dev/ttyUSB0", components.LineInfo{BaudRate: 9600})
			defer m.Cancel()
			m.Update(tea.WindowSizeMsg{Width: 160, Height: 20})

			if _, cmd := m.Update(tt.msg); cmd != nil {
				t.Error("error message scheduled more work")
			}
			if down := m.Status().Err() != nil; down != tt.wantDown {
				t.Errorf("status down = %v, want %v", down, tt.wantDown)
			}
			if tt.wantNote == "" {
				if m.Terminal().Len() != 0 {
					t.Errorf("unexpected note:\n%s", m.View())
				}
				return
			}
			if !strings.Contains(m.View(), tt.wantNote) {
				t.Errorf("view missing %q:\n%s", tt.wantNote, m.View())
			}
		})
	}
}

func TestConnectModelKeys(t *testing.T) {
	m, _ := newConnectModel(t)

	m.Update(runeKey('h'))
	if m.Terminal().GetDisplayMode().ShowHex {
		t.Error("'h' did not hide the hex column")
	}
	m.Update(runeKey('c'))
	if m.Terminal().Len() != 0 {
		t.Error("'c' did not clear the history")
	}

	// In insert mode q is text, not quit.
	m.Update(runeKey('i'))
	m.Update(runeKey('q'))
	if m.Context().Err() != nil {
		t.Fatal("q quit from insert mode")
	}
	if m.Input().Value() != "q" {
		t.Errorf("input = %q, want %q", m.Input().Value(), "q")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if m.IsInsertMode() {
		t.Fatal("esc did not leave insert mode")
	}

	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	if m.Context().Err() == nil {
		t.Error("context not cancelled on quit")
	}
}
