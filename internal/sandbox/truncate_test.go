package sandbox

import "testing"

func TestTruncateOutput_ShorterThanLimitUnchanged(t *testing.T) {
	if got := truncateOutput("hello", 10); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncateOutput_CutsOnRuneBoundary(t *testing.T) {
	// "café" is 4 runes but 5 bytes; truncating to 3 runes must not split
	// the multi-byte é.
	got := truncateOutput("café résumé", 3)
	if got != "caf" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncateOutput_ZeroLimitDisablesTruncation(t *testing.T) {
	if got := truncateOutput("unbounded", 0); got != "unbounded" {
		t.Fatalf("got %q", got)
	}
}
