package components

import (
	"errors"
	"strings"
	"testing"

	serialdma "github.com/allbin/go-serial-dma"
)

func TestLineInfoString(t *testing.T) {
	cfg := serialdma.DefaultConfig()
	cfg.Parity = serialdma.ParityEven
	if got := NewLineInfo(cfg).String(); got != "115200 baud 8E1" {
		t.Errorf("LineInfo = %q", got)
	}
}

func TestStatusBarRingSummary(t *testing.T) {
	sb := NewStatusBar("/dev/ttyUSB0", NewLineInfo(serialdma.DefaultConfig()))
	if sb.RingSummary() != "" {
		t.Error("summary before first sample")
	}

	sb.SetConnected()
	sb.SetPortStats(samplePorts()[0])
	want := "TX 12/64 transferring  RX 3/64 receiving  declined 1"
	if got := sb.RingSummary(); got != want {
		t.Errorf("RingSummary = %q, want %q", got, want)
	}

	sb.SetWidth(200)
	view := sb.View(true, SendHex, "12:00:00")
	for _, s := range []string{"INSERT", "/dev/ttyUSB0", "[HEX]", "TX 12/64", "115200 baud 8N1", "12:00:00"} {
		if !strings.Contains(view, s) {
			t.Errorf("status bar missing %q:\n%s", s, view)
		}
	}
}

func TestStatusBarDown(t *testing.T) {
	sb := NewStatusBar("/dev/ttyACM0", LineInfo{BaudRate: 9600, DataBits: 8, StopBits: 1})
	sb.SetWidth(200)
	sb.SetDown(errors.New("serial line is down"))

	view := sb.View(false, SendASCII, "12:00:00")
	if !strings.Contains(view, "NORMAL") || !strings.Contains(view, "serial line is down") {
		t.Errorf("status bar:\n%s", view)
	}
	if sb.Err() == nil {
		t.Error("Err() = nil after SetDown")
	}
}
