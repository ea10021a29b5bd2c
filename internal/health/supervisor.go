// Package health runs the per-backend circuit breaker and restart
// supervisor described in spec.md §4.4: a periodic three-phase cycle that
// pings healthy peers, half-open-probes peers whose circuit is open, and
// restarts peers that crashed or never came up, all under exponential
// backoff and a bounded restart window.
package health

import (
	"context"
	"sync"
	"time"

	"gatemini/internal/backend"
	"gatemini/internal/config"
	"gatemini/pkg/logging"
)

// Engine is the subset of *backend.Engine the supervisor depends on, kept
// as an interface so tests can substitute a small fake engine whose
// HealthTargets wrap backend.StubPeer values.
type Engine interface {
	HealthTargets() []*backend.HealthTarget
	RestartBackend(ctx context.Context, name string) error
}

// Supervisor runs the health cycle described in spec.md §4.4.
type Supervisor struct {
	engine Engine
	cfg    config.HealthConfig

	mu       sync.Mutex
	circuits map[string]*circuit
	restarts map[string]*restartTracker
}

// New constructs a Supervisor. Run must be called (typically in its own
// goroutine) to start the periodic cycle.
func New(engine Engine, cfg config.HealthConfig) *Supervisor {
	return &Supervisor{
		engine:   engine,
		cfg:      cfg,
		circuits: make(map[string]*circuit),
		restarts: make(map[string]*restartTracker),
	}
}

func (s *Supervisor) circuitFor(name string) *circuit {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.circuits[name]
	if !ok {
		c = newCircuit(s.cfg.FailureThreshold, 3*s.cfg.Interval)
		s.circuits[name] = c
	}
	return c
}

func (s *Supervisor) restartTrackerFor(name string) *restartTracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restarts[name]
	if !ok {
		r = newRestartTracker(s.cfg.MaxRestarts, s.cfg.RestartWindow)
		s.restarts[name] = r
	}
	return r
}

// Run blocks, executing one cycle per s.cfg.Interval, until ctx is
// cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle executes the three phases once (spec.md §4.4).
func (s *Supervisor) runCycle(ctx context.Context) {
	targets := s.engine.HealthTargets()

	s.pingHealthyPeers(ctx, targets)
	s.handleFailedPeers(ctx, targets)
	s.retryPendingPeers(ctx, targets)
}

// pingHealthyPeers is phase 1: ping every Healthy peer concurrently,
// staggering starts over 80% of the interval to avoid a thundering herd of
// simultaneous pings.
func (s *Supervisor) pingHealthyPeers(ctx context.Context, targets []*backend.HealthTarget) {
	healthy := make([]*backend.HealthTarget, 0, len(targets))
	for _, t := range targets {
		if t.State() == backend.StateHealthy {
			healthy = append(healthy, t)
		}
	}
	if len(healthy) == 0 {
		return
	}

	staggerWindow := time.Duration(float64(s.cfg.Interval) * 0.8)
	step := time.Duration(0)
	if len(healthy) > 1 {
		step = staggerWindow / time.Duration(len(healthy))
	}

	var wg sync.WaitGroup
	for i, t := range healthy {
		t := t
		delay := time.Duration(i) * step
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			s.pingOne(ctx, t)
		}()
	}
	wg.Wait()
}

func (s *Supervisor) pingOne(ctx context.Context, t *backend.HealthTarget) {
	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	c := s.circuitFor(t.Name())
	if err := t.Ping(pingCtx); err != nil {
		if c.recordFailure() {
			t.MarkUnhealthy()
			logging.Warn("Health-Supervisor", "backend %s: opened circuit after %d consecutive ping failures", t.Name(), s.cfg.FailureThreshold)
		}
		return
	}
	c.recordSuccess()
}

// handleFailedPeers is phase 2: while a peer's circuit is open, skip it
// until 3×interval has elapsed, then issue one half-open probe. Peers that
// are Stopped (crash or explicit stop) are handed to the restart policy.
func (s *Supervisor) handleFailedPeers(ctx context.Context, targets []*backend.HealthTarget) {
	for _, t := range targets {
		switch t.State() {
		case backend.StateUnhealthy:
			s.probeIfReady(ctx, t)
		case backend.StateStopped:
			s.restartIfDue(ctx, t)
		}
	}
}

// retryPendingPeers is phase 3: peers that never reached Healthy after
// their initial start attempt are Stopped too (ChildPeer/HTTPPeer.Start
// sets Stopped on handshake failure), so this phase shares restartIfDue
// with phase 2's crash-recovery path rather than duplicating the policy.
func (s *Supervisor) retryPendingPeers(ctx context.Context, targets []*backend.HealthTarget) {
	for _, t := range targets {
		if t.State() == backend.StateStopped {
			s.restartIfDue(ctx, t)
		}
	}
}

func (s *Supervisor) probeIfReady(ctx context.Context, t *backend.HealthTarget) {
	c := s.circuitFor(t.Name())
	if !c.readyForProbe() {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := t.Ping(probeCtx); err != nil {
		c.recordProbeFailure()
		logging.Debug("Health-Supervisor", "backend %s: half-open probe failed, circuit stays open", t.Name())
		return
	}

	c.recordSuccess()
	t.MarkHealthy()
	logging.Info("Health-Supervisor", "backend %s: half-open probe succeeded, circuit closed", t.Name())
}

func (s *Supervisor) restartIfDue(ctx context.Context, t *backend.HealthTarget) {
	tracker := s.restartTrackerFor(t.Name())
	if !tracker.ready(time.Now()) {
		return
	}

	if err := s.engine.RestartBackend(ctx, t.Name()); err != nil {
		logging.Warn("Health-Supervisor", "backend %s: restart attempt failed: %v", t.Name(), err)
		return
	}
	logging.Info("Health-Supervisor", "backend %s: restarted", t.Name())
}
