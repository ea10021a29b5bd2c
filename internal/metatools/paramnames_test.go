package metatools

import "testing"

func TestParameterNames_ReturnsKeysInDeclarationOrder(t *testing.T) {
	schema := []byte(`{"type":"object","properties":{"timezone":{"type":"string"},"format":{"type":"string"},"limit":{"type":"number"}},"required":["timezone"]}`)
	got := parameterNames(schema)
	want := []string{"timezone", "format", "limit"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParameterNames_NoPropertiesReturnsNil(t *testing.T) {
	schema := []byte(`{"type":"object"}`)
	if got := parameterNames(schema); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestParameterNames_NestedObjectsDoNotLeakIntoTopLevel(t *testing.T) {
	schema := []byte(`{"type":"object","properties":{"a":{"type":"object","properties":{"inner":{"type":"string"}}},"b":{"type":"string"}}}`)
	got := parameterNames(schema)
	want := []string{"a", "b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParameterNames_EmptySchemaReturnsNil(t *testing.T) {
	if got := parameterNames(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
