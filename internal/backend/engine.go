package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"gatemini/internal/config"
	"gatemini/internal/registry"
	"gatemini/pkg/logging"
)

// startingRetryDelays is the backoff schedule for a call that lands on a
// backend still in Starting (spec.md §4.3 "Starting-state retry").
var startingRetryDelays = []time.Duration{500 * time.Millisecond, 1 * time.Second, 2 * time.Second}

// stopAllDrainTimeout bounds how long stop_all waits for in_flight_calls to
// reach zero before terminating peers anyway (spec.md §4.3 "In-flight
// tracking": "waits for the counter to reach zero with a bounded deadline").
const stopAllDrainTimeout = 10 * time.Second

var (
	ErrBackendNotFound             = errors.New("backend: not found")
	ErrBackendNotDynamic           = errors.New("backend: not dynamic, cannot deregister")
	ErrRuntimeRegistrationDisabled = errors.New("backend: runtime registration disabled")
)

// BackendStatus is the read-only view list_backends and the backend_status
// prompt render.
type BackendStatus struct {
	Name      string
	Transport config.Transport
	State     State
	IsDynamic bool
}

// backendRecord is everything the engine tracks for one backend.
type backendRecord struct {
	cfg  *config.BackendConfig
	peer Peer

	// prereqCmd, when non-nil, is the prerequisite process this engine
	// spawned for this backend; it is killed at shutdown only if the
	// prerequisite was declared managed.
	prereqMu  sync.Mutex
	prereqCmd *prerequisiteHandle

	// reaperDone is the peer's reaper task handle (spec.md §3 BackendRecord
	// "reaper task handle"): closed once the peer's process-exit watcher has
	// observed exit. nil for peers with no process to reap (HTTPPeer).
	reaperDone <-chan struct{}
}

// Engine is the backend engine (spec.md §4.3): start/stop/call across every
// configured and dynamically registered backend, with in-flight tracking
// and runtime (de)registration.
type Engine struct {
	registry *registry.Registry

	records *shardedRecords

	inFlight atomic.Int64
	stopping atomic.Bool

	mu           sync.Mutex // guards dynamicCount and the register/deregister sequence
	dynamicCount int

	allowRuntimeRegistration bool
	maxDynamicBackends       int
}

// NewEngine constructs an engine bound to the given registry. Call StartAll
// to bring up every backend named in cfg.Backends.
func NewEngine(reg *registry.Registry, cfg *config.Config) *Engine {
	return &Engine{
		registry:                 reg,
		records:                  newShardedRecords(),
		allowRuntimeRegistration: cfg.AllowRuntimeRegistration,
		maxDynamicBackends:       cfg.MaxDynamicBackends,
	}
}

// StartAll starts every backend in cfg concurrently. A single backend
// failing to start does not prevent the others from starting; each failure
// is logged and left visible through the backend's State, and StartAll
// itself returns nil for them.
func (e *Engine) StartAll(ctx context.Context, cfg *config.Config) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, bc := range cfg.Backends {
		name, bc := name, bc
		g.Go(func() error {
			if err := e.startBackend(gctx, bc); err != nil {
				logging.Warn("Backend-Engine", "backend %s failed to start: %v", name, err)
				return nil // don't abort sibling starts; failure is visible via State()
			}
			return nil
		})
	}
	return g.Wait()
}

// startBackend resolves the prerequisite (if any), constructs the right
// Peer implementation, starts it, and upserts its tools into the registry.
func (e *Engine) startBackend(ctx context.Context, bc *config.BackendConfig) error {
	rec := &backendRecord{cfg: bc}

	if bc.Prerequisite != nil {
		handle, err := ensurePrerequisite(ctx, bc.Name, bc.Prerequisite)
		if err != nil {
			return fmt.Errorf("prerequisite for %s: %w", bc.Name, err)
		}
		rec.prereqCmd = handle
	}

	var peer Peer
	switch bc.Transport {
	case config.TransportHTTP:
		peer = NewHTTPPeer(bc)
	default:
		peer = NewChildPeer(bc)
	}
	rec.peer = peer
	e.records.set(bc.Name, rec)

	tools, err := peer.Start(ctx)
	if err != nil {
		return err
	}
	if r, ok := peer.(Reaper); ok {
		rec.reaperDone = r.ReaperDone()
	}

	e.registry.UpsertBackendTools(bc.Name, tools)
	logging.Info("Backend-Engine", "backend %s healthy with %d tools", bc.Name, len(tools))
	return nil
}

// stopBackend stops one already-tracked backend and removes its tools from
// the registry. It does not remove the record itself unless requested by
// the caller (StopAll leaves records in place; deregisterDynamic removes
// them).
func (e *Engine) stopBackend(ctx context.Context, rec *backendRecord) error {
	err := rec.peer.Stop(ctx)
	e.registry.RemoveBackend(rec.cfg.Name)

	rec.prereqMu.Lock()
	handle := rec.prereqCmd
	rec.prereqMu.Unlock()
	if handle != nil {
		handle.stopIfManaged()
	}

	return err
}

// Stop stops one named backend.
func (e *Engine) Stop(ctx context.Context, name string) error {
	rec, ok := e.records.get(name)
	if !ok {
		return ErrBackendNotFound
	}
	return e.stopBackend(ctx, rec)
}

// Start (re)starts one named backend using its already-known config, used by
// hot-reload to bring a changed backend back up after stopping the old one.
func (e *Engine) Start(ctx context.Context, bc *config.BackendConfig) error {
	return e.startBackend(ctx, bc)
}

// StopAll blocks new calls, waits (up to stopAllDrainTimeout) for in-flight
// work to drain, then stops every peer (spec.md §4.3, §4.8 "graceful
// shutdown").
func (e *Engine) StopAll(ctx context.Context) error {
	e.stopping.Store(true)

	deadline := time.Now().Add(stopAllDrainTimeout)
	for e.inFlight.Load() > 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	records := e.records.snapshot()
	g, gctx := errgroup.WithContext(ctx)
	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			return e.stopBackend(gctx, rec)
		})
	}
	return g.Wait()
}

// InFlight returns the number of calls currently dispatched to any backend.
func (e *Engine) InFlight() int64 {
	return e.inFlight.Load()
}

// ListBackends returns a stable snapshot of every tracked backend's status.
func (e *Engine) ListBackends() []BackendStatus {
	records := e.records.snapshot()
	out := make([]BackendStatus, 0, len(records))
	for _, rec := range records {
		out = append(out, BackendStatus{
			Name:      rec.cfg.Name,
			Transport: rec.cfg.Transport,
			State:     rec.peer.State(),
			IsDynamic: rec.cfg.IsDynamic,
		})
	}
	return out
}

// Call dispatches one tools/call to the named backend, retrying while the
// backend is Starting (spec.md §4.3 "Starting-state retry") and failing
// immediately for Unhealthy or Stopped. The in-flight guard is held for the
// duration of the call and released on every exit path.
func (e *Engine) Call(ctx context.Context, backendName, tool string, args map[string]any) (CallResult, error) {
	if e.stopping.Load() {
		return CallResult{}, fmt.Errorf("backend engine is stopping")
	}

	rec, ok := e.records.get(backendName)
	if !ok {
		return CallResult{}, ErrBackendNotFound
	}

	for attempt := 0; ; attempt++ {
		switch rec.peer.State() {
		case StateHealthy:
			record := newCallRecord(&e.inFlight)
			defer record.Release()
			return rec.peer.CallTool(ctx, tool, args)
		case StateStarting:
			if attempt >= len(startingRetryDelays) {
				return CallResult{}, fmt.Errorf("backend %s: still starting after retries", backendName)
			}
			select {
			case <-ctx.Done():
				return CallResult{}, ctx.Err()
			case <-time.After(startingRetryDelays[attempt]):
			}
		default:
			return CallResult{}, ErrBackendNotHealthy
		}
	}
}

// RegisterDynamic validates and starts a runtime-registered backend
// (spec.md §4.3 "Runtime registration").
func (e *Engine) RegisterDynamic(ctx context.Context, bc *config.BackendConfig) error {
	if !e.allowRuntimeRegistration {
		return ErrRuntimeRegistrationDisabled
	}

	e.mu.Lock()
	existing := e.existingConfigsLocked()
	if err := config.ValidateDynamicName(bc.Name, e.dynamicCount, e.maxDynamicBackends, existing); err != nil {
		e.mu.Unlock()
		return config.FormatValidationError("backend", bc.Name, err)
	}
	bc.IsDynamic = true
	if bc.Transport == "" {
		if bc.URL != "" {
			bc.Transport = config.TransportHTTP
		} else {
			bc.Transport = config.TransportStdio
		}
	}
	e.dynamicCount++
	e.mu.Unlock()

	if err := e.startBackend(ctx, bc); err != nil {
		e.mu.Lock()
		e.dynamicCount--
		e.mu.Unlock()
		return err
	}
	return nil
}

// DeregisterDynamic stops and removes a backend previously added via
// RegisterDynamic. Static config backends can never be removed this way
// (spec.md §4.3: "static config backends are protected").
func (e *Engine) DeregisterDynamic(ctx context.Context, name string) error {
	rec, ok := e.records.get(name)
	if !ok {
		return ErrBackendNotFound
	}
	if !rec.cfg.IsDynamic {
		return ErrBackendNotDynamic
	}

	if err := e.stopBackend(ctx, rec); err != nil {
		return err
	}
	e.records.delete(name)

	e.mu.Lock()
	e.dynamicCount--
	e.mu.Unlock()
	return nil
}

// HealthTarget is the narrow read/write view into one backend's Peer that
// the health supervisor needs (spec.md §4.4): it can ping and drive the
// Healthy/Unhealthy transition, but — unlike the engine itself — it cannot
// call tools or start/stop the peer outright. Restarts go through
// Engine.RestartBackend so the engine's bookkeeping (registry upsert,
// prerequisite handles) stays consistent.
type HealthTarget struct {
	name string
	peer Peer
}

// NewHealthTarget builds a HealthTarget directly, for wiring and for other
// packages' tests that need one without a full Engine (the engine's own
// HealthTargets method uses this too).
func NewHealthTarget(name string, peer Peer) *HealthTarget {
	return &HealthTarget{name: name, peer: peer}
}

func (h *HealthTarget) Name() string  { return h.name }
func (h *HealthTarget) State() State  { return h.peer.State() }
func (h *HealthTarget) Ping(ctx context.Context) error {
	return h.peer.Ping(ctx)
}

// MarkUnhealthy transitions the peer to Unhealthy, e.g. after
// failure_threshold consecutive ping failures opens the circuit.
func (h *HealthTarget) MarkUnhealthy() { h.peer.setState(StateUnhealthy) }

// MarkHealthy transitions the peer back to Healthy after a successful
// half-open probe.
func (h *HealthTarget) MarkHealthy() { h.peer.setState(StateHealthy) }

// HealthTargets returns a snapshot of every tracked backend as a
// HealthTarget, for the supervisor's per-cycle sweep.
func (e *Engine) HealthTargets() []*HealthTarget {
	records := e.records.snapshot()
	out := make([]*HealthTarget, 0, len(records))
	for name, rec := range records {
		out = append(out, NewHealthTarget(name, rec.peer))
	}
	return out
}

// RestartBackend stops (best-effort, since a Stopped peer is typically
// already dead) and restarts the named backend using its existing config.
// Used by the health supervisor's restart-window logic.
func (e *Engine) RestartBackend(ctx context.Context, name string) error {
	rec, ok := e.records.get(name)
	if !ok {
		return ErrBackendNotFound
	}
	_ = rec.peer.Stop(ctx)
	return e.startBackend(ctx, rec.cfg)
}

// BackendConfig returns the static configuration for a tracked backend, used
// by get_required_keys_for_tool to look up its declared environment keys.
func (e *Engine) BackendConfig(name string) (*config.BackendConfig, bool) {
	rec, ok := e.records.get(name)
	if !ok {
		return nil, false
	}
	return rec.cfg, true
}

func (e *Engine) existingConfigsLocked() map[string]*config.BackendConfig {
	records := e.records.snapshot()
	out := make(map[string]*config.BackendConfig, len(records))
	for name, rec := range records {
		out[name] = rec.cfg
	}
	return out
}
