package cmd

import "testing"

func TestPreview(t *testing.T) {
	if got := preview([]byte("AT\r\n"), 50); got != "AT.." {
		t.Errorf("preview = %q", got)
	}
	if got := preview([]byte("abcdef"), 3); got != "abc..." {
		t.Errorf("preview = %q", got)
	}
}

func TestSplitChunks(t *testing.T) {
	chunks := splitChunks([]byte("abcdefg"), 3)
	want := []string{"abc", "def", "g"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i := range want {
		if string(chunks[i]) != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
	if splitChunks([]byte("x"), 0) != nil {
		t.Error("expected nil for zero chunk size")
	}
}

func TestApplyLogLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "warn", "error"} {
		if err := applyLogLevel(name); err != nil {
			t.Errorf("applyLogLevel(%q): %v", name, err)
		}
	}
	if err := applyLogLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	applyLogLevel("warn")
}
