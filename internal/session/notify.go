package session

import (
	"sync"

	"github.com/mark3labs/mcp-go/server"
)

// Hub tracks every currently live session's MCP server and broadcasts
// list_changed notifications to all of them when the shared registry
// mutates (spec.md §4.12 "subscribes ... to ... registry-mutation events to
// emit list_changed notifications"). The registry itself only supports one
// mutation callback (registry.WithMutationHook), so app bootstrap wires
// that single callback to Hub.NotifyRegistryChanged, and Hub fans it out to
// however many sessions happen to be connected at that moment.
type Hub struct {
	mu       sync.Mutex
	sessions map[*server.MCPServer]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[*server.MCPServer]struct{})}
}

func (h *Hub) register(s *server.MCPServer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
}

func (h *Hub) unregister(s *server.MCPServer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

// NotifyRegistryChanged tells every live session that the tool and resource
// sets may have changed. A backend register/deregister always goes through
// registry.UpsertBackendTools or registry.RemoveBackend (internal/backend's
// only two call sites into the registry), so this single hook covers both
// "backend-add/remove" and "registry-mutation" events named in spec.md
// §4.12 — they are the same underlying event from the registry's point of
// view.
func (h *Hub) NotifyRegistryChanged() {
	h.mu.Lock()
	servers := make([]*server.MCPServer, 0, len(h.sessions))
	for s := range h.sessions {
		servers = append(servers, s)
	}
	h.mu.Unlock()

	for _, s := range servers {
		s.SendNotificationToAllClients("notifications/tools/list_changed", nil)
		s.SendNotificationToAllClients("notifications/resources/list_changed", nil)
	}
}
