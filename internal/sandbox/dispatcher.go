package sandbox

import (
	"context"
	"encoding/json"
	"fmt"

	"gatemini/internal/backend"
	"gatemini/internal/config"
	"gatemini/internal/registry"
	"gatemini/pkg/logging"
)

// subsystem tags every log line this package emits.
const subsystem = "Sandbox"

// Dispatcher implements metatools.Dispatcher, resolving call_tool_chain's
// code argument through the three tiers of spec.md §4.8.
type Dispatcher struct {
	registry *registry.Registry
	engine   *backend.Engine
	cfg      config.SandboxConfig
}

// New constructs a Dispatcher. cfg should come from the daemon's loaded
// config.Config.Sandbox (already defaulted by config.Load).
func New(reg *registry.Registry, eng *backend.Engine, cfg config.SandboxConfig) *Dispatcher {
	return &Dispatcher{registry: reg, engine: eng, cfg: cfg}
}

// directCall is the shape accepted by tier 1 and produced by tier 2.
type directCall struct {
	Backend   string
	Tool      string
	Arguments map[string]any
}

// Dispatch resolves code through direct JSON, then the regex fast path,
// then falls back to the JavaScript sandbox.
func (d *Dispatcher) Dispatch(ctx context.Context, code string) (string, []string, error) {
	if call, ok := parseDirectJSON(code); ok {
		logging.Debug(subsystem, "direct JSON dispatch: %s.%s", call.Backend, call.Tool)
		out, err := d.invoke(ctx, call)
		return truncateOutput(out, d.maxOutputChars()), []string{call.Backend + "." + call.Tool}, err
	}

	if call, ok := parseRegexFastPath(code); ok {
		logging.Debug(subsystem, "regex fast-path dispatch: %s.%s", call.Backend, call.Tool)
		out, err := d.invoke(ctx, call)
		return truncateOutput(out, d.maxOutputChars()), []string{call.Backend + "." + call.Tool}, err
	}

	logging.Debug(subsystem, "falling back to JS sandbox")
	out, toolsCalled, err := d.runScript(ctx, code)
	return truncateOutput(out, d.maxOutputChars()), toolsCalled, err
}

func (d *Dispatcher) maxOutputChars() int {
	if d.cfg.MaxOutputChars > 0 {
		return d.cfg.MaxOutputChars
	}
	return config.DefaultSandboxMaxOutputChars
}

// invoke calls the backend engine directly, used by tiers 1 and 2.
func (d *Dispatcher) invoke(ctx context.Context, call directCall) (string, error) {
	result, err := d.engine.Call(ctx, call.Backend, call.Tool, call.Arguments)
	if err != nil {
		return "", err
	}
	if result.IsError {
		return "", fmt.Errorf("%s.%s: %s", call.Backend, call.Tool, string(result.Content))
	}
	return string(result.Content), nil
}

// parseDirectJSON implements tier 1: code is a JSON object naming a
// dotted "backend.tool" and an arguments object.
func parseDirectJSON(code string) (directCall, bool) {
	var payload struct {
		Tool      string         `json:"tool"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(code), &payload); err != nil {
		return directCall{}, false
	}
	backendName, toolName, ok := splitFQN(payload.Tool)
	if !ok {
		return directCall{}, false
	}
	args := payload.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return directCall{Backend: backendName, Tool: toolName, Arguments: args}, true
}
