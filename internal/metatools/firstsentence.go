package metatools

import "strings"

// toolSummaryMaxLen and resourceSummaryMaxLen bound the fallback truncation
// length for first-sentence extraction (spec.md §4.7: "200 characters with
// an ellipsis (resources use 120 characters)").
const (
	toolSummaryMaxLen     = 200
	resourceSummaryMaxLen = 120
)

// firstSentence extracts the leading sentence of description, searching in
// order for ". ", ".\n", a trailing ".", and otherwise truncating to maxLen
// runes with an ellipsis (spec.md §4.7 "First-sentence extraction").
func firstSentence(description string, maxLen int) string {
	if i := strings.Index(description, ". "); i >= 0 {
		return description[:i+1]
	}
	if i := strings.Index(description, ".\n"); i >= 0 {
		return description[:i+1]
	}
	if strings.HasSuffix(description, ".") {
		return description
	}
	return truncateWithEllipsis(description, maxLen)
}

func truncateWithEllipsis(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}
