package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestartTracker_FirstAttemptIsImmediate(t *testing.T) {
	r := newRestartTracker(5, time.Minute)
	assert.True(t, r.ready(time.Now()))
}

func TestRestartTracker_SecondAttemptWaitsForBackoff(t *testing.T) {
	r := newRestartTracker(5, time.Minute)
	now := time.Now()
	assert.True(t, r.ready(now))
	assert.False(t, r.ready(now)) // backoffDelay(0) = 1s hasn't elapsed
	assert.True(t, r.ready(now.Add(2*time.Second)))
}

func TestRestartTracker_StopsAfterMaxRestarts(t *testing.T) {
	r := newRestartTracker(2, time.Hour)
	now := time.Now()
	assert.True(t, r.ready(now))
	now = now.Add(5 * time.Second)
	assert.True(t, r.ready(now))
	now = now.Add(20 * time.Second)
	assert.False(t, r.ready(now)) // quota exhausted within the window
}

func TestRestartTracker_WindowResetAllowsFreshAttempts(t *testing.T) {
	r := newRestartTracker(1, time.Minute)
	now := time.Now()
	assert.True(t, r.ready(now))
	assert.False(t, r.ready(now.Add(time.Second)))

	// restart_window elapses: quota and backoff both reset.
	assert.True(t, r.ready(now.Add(2*time.Minute)))
}

func TestBackoffDelay_CapsAtThirtySeconds(t *testing.T) {
	assert.Equal(t, 30*time.Second, backoffDelay(10))
}

func TestBackoffDelay_FollowsDoublingSchedule(t *testing.T) {
	assert.Equal(t, 1*time.Second, backoffDelay(0))
	assert.Equal(t, 2*time.Second, backoffDelay(1))
	assert.Equal(t, 16*time.Second, backoffDelay(4))
}
