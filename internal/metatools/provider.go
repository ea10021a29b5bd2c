package metatools

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"gatemini/internal/backend"
	"gatemini/internal/registry"
)

// Dispatcher runs call_tool_chain's code argument through the three-tier
// dispatch described in spec.md §4.8 (direct JSON, regex fast path, JS
// sandbox) and returns its output (already truncated to the configured
// maximum) plus the fully-qualified names of every backend tool the code
// actually invoked, so callToolChain can feed list_tools_meta's usage
// ordering. internal/sandbox.Dispatcher satisfies this; internal/app
// injects it, and this package does not import internal/sandbox.
type Dispatcher interface {
	Dispatch(ctx context.Context, code string) (output string, toolsCalled []string, err error)
}

// discoveryGuidance is the scripted progressive-disclosure message the
// discover prompt returns and every session's get_info embeds (spec.md
// §4.12), so agents learn the meta-tool workflow without external docs.
const discoveryGuidance = `This server exposes seven meta-tools instead of every backend tool directly:

1. Call search_tools with a short task description to find candidate tools.
2. Call tool_info with detail:"full" on the tool you intend to use to see its complete input schema.
3. Call get_required_keys_for_tool if the tool's backend needs environment keys you haven't configured.
4. Call call_tool_chain with code that either directly names "backend.tool" with a JSON arguments object, or a short expression/script invoking one or more tools; its result is the tool's output.

Use list_tools_meta to page through every known tool, and register_manual / deregister_manual to manage backends at runtime.`

// Provider wires registry.Registry, backend.Engine, and a Dispatcher to the
// seven meta-tool handlers, the resource set, and the three prompts
// declared in spec.md §4.7.
type Provider struct {
	registry   *registry.Registry
	engine     *backend.Engine
	dispatcher Dispatcher
	usage      *usageCounter

	maxSearchLimit     int
	defaultSearchLimit int
	defaultPageSize    int
}

// NewProvider constructs a Provider. dispatcher may be nil until
// internal/sandbox is wired in app bootstrap; call_tool_chain returns an
// error until it is set.
func NewProvider(reg *registry.Registry, eng *backend.Engine, dispatcher Dispatcher) *Provider {
	return &Provider{
		registry:           reg,
		engine:             eng,
		dispatcher:         dispatcher,
		usage:              newUsageCounter(),
		maxSearchLimit:     50,
		defaultSearchLimit: 10,
		defaultPageSize:    50,
	}
}

// SetDispatcher wires the sandbox dispatcher after construction;
// internal/app's New calls it with a sandbox.Dispatcher built from the same
// registry and engine.
func (p *Provider) SetDispatcher(d Dispatcher) {
	p.dispatcher = d
}

// DiscoveryGuidance returns the scripted progressive-disclosure message, for
// internal/session to embed into its get_info response (spec.md §4.12).
func (p *Provider) DiscoveryGuidance() string {
	return discoveryGuidance
}

// RegisterOn registers every meta-tool, resource, resource template, and
// prompt onto mcpServer (spec.md §4.7). Capability announcement itself
// happens at server.NewMCPServer construction time (internal/session owns
// that).
func (p *Provider) RegisterOn(mcpServer *server.MCPServer) {
	mcpServer.AddTools(p.serverTools()...)
	mcpServer.AddResources(p.serverResources()...)
	for _, t := range p.serverResourceTemplates() {
		mcpServer.AddResourceTemplate(t.Template, t.Handler)
	}
	mcpServer.AddPrompts(p.serverPrompts()...)
}
