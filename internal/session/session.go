package session

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/server"

	"gatemini/internal/metatools"
	"gatemini/pkg/logging"
)

const subsystem = "Session"

const (
	serverName    = "gatemini"
	serverVersion = "1.0.0"
)

// Server builds one MCP server per connection and serves it over stdio
// framing (spec.md §4.12). Every session shares the same Provider, which in
// turn shares the same registry and backend engine by reference (spec.md
// §4.11 "fresh session sharing the engine and registry by reference") — the
// only thing actually created per connection is the mcp-go MCPServer
// instance and its stdio loop.
type Server struct {
	provider *metatools.Provider
	hub      *Hub
}

// NewServer constructs a session factory. hub may be nil, in which case
// sessions never receive list_changed notifications (used by tests that
// don't care about the notification path).
func NewServer(provider *metatools.Provider, hub *Hub) *Server {
	return &Server{provider: provider, hub: hub}
}

// Serve adapts one connection to the MCP protocol, blocking until the
// client disconnects or ctx is cancelled (spec.md §4.11 "Sessions run the
// MCP protocol using an external implementation").
func (s *Server) Serve(ctx context.Context, rw io.ReadWriter) error {
	mcpSrv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithInstructions(s.provider.DiscoveryGuidance()),
	)

	s.provider.RegisterOn(mcpSrv)

	if s.hub != nil {
		s.hub.register(mcpSrv)
		defer s.hub.unregister(mcpSrv)
	}

	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, rw, rw); err != nil {
		logging.Debug(subsystem, "session ended: %v", err)
		return err
	}
	return nil
}
