package health

import (
	"sync"
	"time"
)

// circuitState mirrors r3e-network-service_layer/infrastructure/resilience's
// CircuitBreaker state names, scaled down to what spec.md §4.4 actually
// needs: there is no half-open concurrency limit here (the supervisor issues
// exactly one probe per cycle per backend, never several in parallel), and
// the reopen timer is a fixed multiple of the health interval rather than a
// freely configured timeout.
type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
)

// circuit tracks one backend's consecutive ping failures and, once tripped,
// when it is next eligible for a half-open probe (spec.md §4.4 phase 1/2:
// "if it reaches failure_threshold, transition to Unhealthy and open the
// circuit" / "while the circuit is open, skip work until 3 × interval
// elapses since opening").
type circuit struct {
	mu sync.Mutex

	failureThreshold int
	reopenAfter      time.Duration

	consecutiveFailures int
	open                bool
	openedAt            time.Time
}

func newCircuit(failureThreshold int, reopenAfter time.Duration) *circuit {
	return &circuit{failureThreshold: failureThreshold, reopenAfter: reopenAfter}
}

// recordFailure increments the failure count and reports whether this
// failure just tripped the circuit open.
func (c *circuit) recordFailure() (justOpened bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if !c.open && c.consecutiveFailures >= c.failureThreshold {
		c.open = true
		c.openedAt = time.Now()
		return true
	}
	return false
}

// recordSuccess resets the failure streak and closes the circuit.
func (c *circuit) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
	c.open = false
}

// recordProbeFailure keeps the circuit open and resets the reopen timer
// (spec.md §4.4: "on failure, reset the open timestamp and keep the circuit
// open").
func (c *circuit) recordProbeFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openedAt = time.Now()
}

// readyForProbe reports whether the circuit has been open long enough to
// issue a half-open probe.
func (c *circuit) readyForProbe() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open && time.Since(c.openedAt) >= c.reopenAfter
}

func (c *circuit) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
