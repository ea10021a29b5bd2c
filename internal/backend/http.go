package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"gatemini/internal/config"
	"gatemini/internal/registry"
)

// HTTPPeer is a streamable-HTTP-transport backend (spec.md §3 BackendConfig
// "http" transport): same client.NewStreamableHttpClient +
// transport.WithHTTPHeaders call shape as a fixed OAuth-bearer client,
// generalized to the backend's configured header map (which may itself
// carry a resolved secretref, e.g. an Authorization bearer token).
type HTTPPeer struct {
	basePeer

	cfg *config.BackendConfig

	mu     sync.RWMutex
	client client.MCPClient
}

// NewHTTPPeer constructs a peer for an HTTP-transport backend.
func NewHTTPPeer(cfg *config.BackendConfig) *HTTPPeer {
	return &HTTPPeer{
		basePeer: newBasePeer(cfg.Name, cfg.Timeout),
		cfg:      cfg,
	}
}

func (p *HTTPPeer) Start(ctx context.Context) ([]registry.ToolDescriptor, error) {
	var opts []transport.StreamableHTTPCOption
	if len(p.cfg.Headers) > 0 {
		// transport.WithHTTPHeaders expects every value tolerant of an
		// absent Content-Type (spec.md §4.3 "HTTP peer" notes) — mcp-go
		// sets its own Content-Type for JSON-RPC bodies regardless, so no
		// special-casing is needed here beyond forwarding what config says.
		opts = append(opts, transport.WithHTTPHeaders(p.cfg.Headers))
	}

	cl, err := client.NewStreamableHttpClient(p.cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("backend %s: new http client: %w", p.name, err)
	}

	initCtx, cancel := p.callDeadline(ctx)
	defer cancel()

	if _, err := cl.Initialize(initCtx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo: mcp.Implementation{
				Name:    "gatemini",
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}); err != nil {
		_ = cl.Close()
		p.setState(StateStopped)
		return nil, fmt.Errorf("backend %s: initialize: %w", p.name, err)
	}

	p.mu.Lock()
	p.client = cl
	p.mu.Unlock()

	tools, err := p.discoverTools(ctx, cl)
	if err != nil {
		_ = cl.Close()
		p.setState(StateStopped)
		return nil, err
	}

	p.setState(StateHealthy)
	return tools, nil
}

func (p *HTTPPeer) discoverTools(ctx context.Context, cl client.MCPClient) ([]registry.ToolDescriptor, error) {
	listCtx, cancel := p.callDeadline(ctx)
	defer cancel()

	result, err := cl.ListTools(listCtx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("backend %s: list tools: %w", p.name, err)
	}

	descs := make([]registry.ToolDescriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		descs = append(descs, registry.ToolDescriptor{
			Name:        t.Name,
			Backend:     p.name,
			Description: t.Description,
		})
	}
	return descs, nil
}

func (p *HTTPPeer) DiscoverTools(ctx context.Context) ([]registry.ToolDescriptor, error) {
	p.mu.RLock()
	cl := p.client
	p.mu.RUnlock()
	if cl == nil {
		return nil, ErrBackendNotHealthy
	}
	return p.discoverTools(ctx, cl)
}

func (p *HTTPPeer) CallTool(ctx context.Context, tool string, args map[string]any) (CallResult, error) {
	if p.State() != StateHealthy {
		return CallResult{}, ErrBackendNotHealthy
	}

	p.mu.RLock()
	cl := p.client
	p.mu.RUnlock()
	if cl == nil {
		return CallResult{}, ErrBackendNotHealthy
	}

	callCtx, cancel := p.callDeadline(ctx)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	result, err := cl.CallTool(callCtx, req)
	if err != nil {
		return CallResult{}, fmt.Errorf("backend %s: call %s: %w", p.name, tool, err)
	}

	content, err := marshalToolResult(result)
	if err != nil {
		return CallResult{}, err
	}
	return CallResult{Content: content, IsError: result.IsError}, nil
}

func (p *HTTPPeer) Ping(ctx context.Context) error {
	p.mu.RLock()
	cl := p.client
	p.mu.RUnlock()
	if cl == nil {
		return ErrBackendNotHealthy
	}
	pingCtx, cancel := p.callDeadline(ctx)
	defer cancel()
	return cl.Ping(pingCtx)
}

// Stop closes the HTTP client. There is no process to signal; nothing here
// blocks beyond the transport's own close. HTTPPeer does not implement
// Reaper: it reaches an already-running remote endpoint rather than
// spawning one, so there is no child process to await exit on (spec.md
// §4.3 "Child-process peer" reaper requirement applies only to the stdio
// transport). An unexpected disconnect is instead caught the same way any
// other backend failure is: the health supervisor's ping cycle marks the
// peer Unhealthy and circuit-opens it.
func (p *HTTPPeer) Stop(ctx context.Context) error {
	p.setState(StateStopped)

	p.mu.RLock()
	cl := p.client
	p.mu.RUnlock()

	if cl == nil {
		return nil
	}
	return cl.Close()
}

var _ Peer = (*HTTPPeer)(nil)
