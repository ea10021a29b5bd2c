package backend

import (
	"context"
	"time"

	"gatemini/internal/config"
	"gatemini/internal/registry"
)

// StubPeer is an in-memory Peer with no process and no network call,
// letting tests in other packages exercise state-transition logic without
// spawning anything: the health supervisor tests wrap it in a HealthTarget,
// and the metatools and sandbox tests register it on a real Engine through
// AdoptPeer. It is not used by the engine itself outside tests and
// AdoptPeer call sites.
type StubPeer struct {
	basePeer

	Tools    []registry.ToolDescriptor
	StartErr error
	PingFn   func(ctx context.Context) error
	StopFn   func(ctx context.Context) error
	CallFn   func(tool string, args map[string]any) (CallResult, error)
}

// NewStubPeer constructs a StubPeer already set to the given initial state.
func NewStubPeer(name string, initial State) *StubPeer {
	p := &StubPeer{basePeer: newBasePeer(name, time.Second)}
	p.setState(initial)
	return p
}

func (p *StubPeer) Start(ctx context.Context) ([]registry.ToolDescriptor, error) {
	if p.StartErr != nil {
		p.setState(StateStopped)
		return nil, p.StartErr
	}
	p.setState(StateHealthy)
	return p.Tools, nil
}

func (p *StubPeer) Stop(ctx context.Context) error {
	p.setState(StateStopped)
	if p.StopFn != nil {
		return p.StopFn(ctx)
	}
	return nil
}

func (p *StubPeer) CallTool(ctx context.Context, tool string, args map[string]any) (CallResult, error) {
	if p.CallFn != nil {
		return p.CallFn(tool, args)
	}
	return CallResult{}, nil
}

func (p *StubPeer) Ping(ctx context.Context) error {
	if p.PingFn != nil {
		return p.PingFn(ctx)
	}
	return nil
}

func (p *StubPeer) DiscoverTools(ctx context.Context) ([]registry.ToolDescriptor, error) {
	return p.Tools, nil
}

var _ Peer = (*StubPeer)(nil)

// AdoptPeer registers an already-constructed peer under name, bypassing
// startBackend's transport-specific construction. Used by this package's
// tests and by the metatools and sandbox tests, which need to drive the
// engine against a peer built out of band.
func (e *Engine) AdoptPeer(cfg *config.BackendConfig, peer Peer) {
	e.records.set(cfg.Name, &backendRecord{cfg: cfg, peer: peer})
}
