package sandbox

import "testing"

func TestSanitizeIdentifier_ReplacesNonIdentifierChars(t *testing.T) {
	if got := sanitizeIdentifier("my-backend.v2"); got != "my_backend_v2" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeIdentifier_PrependsUnderscoreForLeadingDigit(t *testing.T) {
	if got := sanitizeIdentifier("9lives"); got != "_9lives" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeIdentifier_LeavesValidIdentifierUnchanged(t *testing.T) {
	if got := sanitizeIdentifier("exa_search"); got != "exa_search" {
		t.Fatalf("got %q", got)
	}
}
