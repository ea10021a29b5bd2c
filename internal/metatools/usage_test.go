package metatools

import "testing"

func TestUsageCounter_RecordIncrements(t *testing.T) {
	u := newUsageCounter()
	u.record("time.get_current_time")
	u.record("time.get_current_time")
	u.record("exa.web_search_exa")

	if got := u.get("time.get_current_time"); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
	if got := u.get("exa.web_search_exa"); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestUsageCounter_UnseenToolIsZero(t *testing.T) {
	u := newUsageCounter()
	if got := u.get("never.called"); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}
