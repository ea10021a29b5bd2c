package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatemini/internal/backend"
	"gatemini/internal/config"
)

// fakeEngine is a minimal Engine double: its HealthTargets are fixed for the
// test, and RestartBackend just records what was asked of it.
type fakeEngine struct {
	mu           sync.Mutex
	targets      []*backend.HealthTarget
	restartCalls []string
	restartErr   error
}

func (f *fakeEngine) HealthTargets() []*backend.HealthTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.targets
}

func (f *fakeEngine) RestartBackend(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restartCalls = append(f.restartCalls, name)
	return f.restartErr
}

func (f *fakeEngine) restartCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.restartCalls)
}

var _ Engine = (*fakeEngine)(nil)

func testHealthConfig() config.HealthConfig {
	return config.HealthConfig{
		Interval:         50 * time.Millisecond,
		Timeout:          20 * time.Millisecond,
		FailureThreshold: 2,
		MaxRestarts:      5,
		RestartWindow:    time.Minute,
	}
}

func TestSupervisor_PingFailureOpensCircuitAfterThreshold(t *testing.T) {
	sp := backend.NewStubPeer("b", backend.StateHealthy)
	sp.PingFn = func(ctx context.Context) error { return assertErr }
	eng := &fakeEngine{targets: []*backend.HealthTarget{backend.NewHealthTarget("b", sp)}}

	s := New(eng, testHealthConfig())

	s.runCycle(context.Background())
	assert.Equal(t, backend.StateHealthy, sp.State()) // only 1 failure so far

	s.runCycle(context.Background())
	assert.Equal(t, backend.StateUnhealthy, sp.State()) // 2nd failure trips threshold
}

func TestSupervisor_PingSuccessKeepsBackendHealthy(t *testing.T) {
	sp := backend.NewStubPeer("b", backend.StateHealthy)
	eng := &fakeEngine{targets: []*backend.HealthTarget{backend.NewHealthTarget("b", sp)}}

	s := New(eng, testHealthConfig())
	for i := 0; i < 5; i++ {
		s.runCycle(context.Background())
	}
	assert.Equal(t, backend.StateHealthy, sp.State())
}

func TestSupervisor_HalfOpenProbeClosesCircuitOnSuccess(t *testing.T) {
	sp := backend.NewStubPeer("b", backend.StateHealthy)
	failing := true
	sp.PingFn = func(ctx context.Context) error {
		if failing {
			return assertErr
		}
		return nil
	}
	eng := &fakeEngine{targets: []*backend.HealthTarget{backend.NewHealthTarget("b", sp)}}

	cfg := testHealthConfig()
	cfg.FailureThreshold = 1
	cfg.Interval = 10 * time.Millisecond
	s := New(eng, cfg)

	s.runCycle(context.Background())
	require.Equal(t, backend.StateUnhealthy, sp.State())

	// Circuit reopen delay is 3x interval = 30ms; not ready immediately.
	s.runCycle(context.Background())
	assert.Equal(t, backend.StateUnhealthy, sp.State())

	time.Sleep(40 * time.Millisecond)
	failing = false
	s.runCycle(context.Background())
	assert.Equal(t, backend.StateHealthy, sp.State())
}

func TestSupervisor_RestartsStoppedBackend(t *testing.T) {
	sp := backend.NewStubPeer("b", backend.StateStopped)
	eng := &fakeEngine{targets: []*backend.HealthTarget{backend.NewHealthTarget("b", sp)}}

	s := New(eng, testHealthConfig())
	s.runCycle(context.Background())

	assert.GreaterOrEqual(t, eng.restartCount(), 1)
}

func TestSupervisor_DoesNotPingNonHealthyPeers(t *testing.T) {
	pinged := false
	sp := backend.NewStubPeer("b", backend.StateStarting)
	sp.PingFn = func(ctx context.Context) error { pinged = true; return nil }
	eng := &fakeEngine{targets: []*backend.HealthTarget{backend.NewHealthTarget("b", sp)}}

	s := New(eng, testHealthConfig())
	s.runCycle(context.Background())

	assert.False(t, pinged)
}

var assertErr = errors.New("ping failed")
