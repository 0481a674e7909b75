package components

import (
	"bytes"
	"fmt"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{"48656c6c6f", []byte("Hello"), false},
		{"48 65 6C 6C 6F", []byte("Hello"), false},
		{"0x0D0x0A", []byte{0x0d, 0x0a}, false},
		{"de:ad:be:ef", []byte{0xde, 0xad, 0xbe, 0xef}, false},
		{"", nil, true},
		{"abc", nil, true},
		{"zz", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("ParseHex(%q) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func TestInputPayload(t *testing.T) {
	in := NewInput()

	in.SetValue("AT")
	got, err := in.Payload()
	if err != nil || string(got) != "AT\n" {
		t.Errorf("ASCII payload = %q, %v; want %q", got, err, "AT\n")
	}

	in.ToggleMode()
	if in.Mode() != SendHex {
		t.Fatalf("mode = %v, want HEX", in.Mode())
	}
	in.SetValue("41 54")
	got, err = in.Payload()
	if err != nil || string(got) != "AT" {
		t.Errorf("hex payload = %q, %v; want %q", got, err, "AT")
	}

	in.SetValue("4")
	if _, err := in.Payload(); err == nil {
		t.Error("expected error for odd hex input")
	}

	in.ToggleMode()
	in.SetValue("")
	if _, err := in.Payload(); err == nil {
		t.Error("expected error for empty line")
	}
}

func TestInputHistory(t *testing.T) {
	in := NewInput()
	for _, line := range []string{"one", "two", "two", "  ", "three"} {
		in.AddToHistory(line)
	}
	in.SetValue("draft")

	steps := []struct {
		up   bool
		want string
	}{
		{true, "three"},
		{true, "two"},
		{true, "one"},
		{true, "one"},
		{false, "two"},
		{false, "three"},
		{false, "draft"},
		{false, "draft"},
	}
	for i, s := range steps {
		if s.up {
			in.HistoryUp()
		} else {
			in.HistoryDown()
		}
		if got := in.Value(); got != s.want {
			t.Fatalf("step %d: value = %q, want %q", i, got, s.want)
		}
	}
}

func TestInputHistoryBounded(t *testing.T) {
	in := NewInput()
	for i := 0; i < maxHistory+10; i++ {
		in.AddToHistory(fmt.Sprintf("line %d", i))
	}
	if len(in.history) != maxHistory {
		t.Errorf("history holds %d lines, want %d", len(in.history), maxHistory)
	}
}
