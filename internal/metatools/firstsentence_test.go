package metatools

import "testing"

func TestFirstSentence_SplitsOnPeriodSpace(t *testing.T) {
	got := firstSentence("Search the web using Exa's neural engine. Returns results.", toolSummaryMaxLen)
	want := "Search the web using Exa's neural engine."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFirstSentence_SplitsOnPeriodNewline(t *testing.T) {
	got := firstSentence("First line.\nSecond line.", toolSummaryMaxLen)
	if got != "First line." {
		t.Fatalf("got %q", got)
	}
}

func TestFirstSentence_SingleSentenceReturnedWhole(t *testing.T) {
	got := firstSentence("Does one thing well.", toolSummaryMaxLen)
	if got != "Does one thing well." {
		t.Fatalf("got %q", got)
	}
}

func TestFirstSentence_NoTerminatorTruncatesWithEllipsis(t *testing.T) {
	long := ""
	for i := 0; i < 250; i++ {
		long += "a"
	}
	got := firstSentence(long, toolSummaryMaxLen)
	runes := []rune(got)
	if runes[len(runes)-1] != '…' {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if len(runes) != toolSummaryMaxLen+1 {
		t.Fatalf("expected %d runes + ellipsis, got %d", toolSummaryMaxLen, len(runes))
	}
}

func TestFirstSentence_ResourceMaxLenIsShorter(t *testing.T) {
	long := ""
	for i := 0; i < 150; i++ {
		long += "b"
	}
	got := firstSentence(long, resourceSummaryMaxLen)
	if len([]rune(got)) != resourceSummaryMaxLen+1 {
		t.Fatalf("got len %d", len([]rune(got)))
	}
}
