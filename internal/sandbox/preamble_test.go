package sandbox

import (
	"strings"
	"testing"

	"gatemini/internal/registry"
)

func TestPreambleSource_GeneratesWrapperPerTool(t *testing.T) {
	src, err := preambleSource([]registry.ToolDescriptor{
		{Name: "get_current_time", Backend: "time", Description: "Returns the current time."},
		{Name: "web_search_exa", Backend: "exa", Description: "Search the web."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		`var time = {};`,
		`time["get_current_time"] = async function(args) { return __call_tool("time", "get_current_time", args || {}); };`,
		`var exa = {};`,
		`globalThis["exa"] = exa;`,
		`function __getToolInterface(name)`,
		`"get_current_time"`,
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("expected preamble to contain %q, got:\n%s", want, src)
		}
	}
}

func TestPreambleSource_SanitizesBackendIdentifier(t *testing.T) {
	src, err := preambleSource([]registry.ToolDescriptor{
		{Name: "ping", Backend: "my-backend.v2", Description: "Pings."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(src, "var my_backend_v2 = {};") {
		t.Fatalf("expected sanitized identifier, got:\n%s", src)
	}
	if !strings.Contains(src, `globalThis["my-backend.v2"] = my_backend_v2;`) {
		t.Fatalf("expected globalThis keyed by real backend name, got:\n%s", src)
	}
}
