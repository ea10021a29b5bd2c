// Package secrets implements the pluggable secret-provider contract that
// config's secretref: resolution dispatches through. A provider turns one
// reference string into a resolved value; it has no knowledge of where in
// config.yaml the reference came from.
package secrets

import (
	"context"
	"fmt"
	"sync"
)

// Provider resolves a single secret reference to its value.
type Provider interface {
	// Name returns the alias this provider is registered under, matching
	// the <provider> segment of secretref:<provider>:<reference>.
	Name() string
	Resolve(ctx context.Context, reference string) (string, error)
}

// ErrNotRegistered is returned by Registry.Resolve when no provider is
// registered under the requested alias.
type ErrNotRegistered struct {
	Alias string
}

func (e ErrNotRegistered) Error() string {
	return fmt.Sprintf("secret provider %q is not registered", e.Alias)
}

// Registry holds every provider known to this daemon, keyed by alias.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns an empty registry. The env-fallback provider is
// registered separately by the caller so tests can substitute their own.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces the provider under its own Name().
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Resolve looks up the provider registered under alias and asks it to
// resolve reference.
func (r *Registry) Resolve(ctx context.Context, alias, reference string) (string, error) {
	r.mu.RLock()
	p, ok := r.providers[alias]
	r.mu.RUnlock()
	if !ok {
		return "", ErrNotRegistered{Alias: alias}
	}
	return p.Resolve(ctx, reference)
}
