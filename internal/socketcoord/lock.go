package socketcoord

import (
	"github.com/gofrs/flock"
)

// Lock wraps a held advisory file lock. Releasing it (or the process dying)
// frees it for the next contender.
type Lock struct {
	fl *flock.Flock
}

// TryAcquireExclusiveLock attempts a non-blocking exclusive lock on the file
// at path, creating it if necessary. It returns (lock, true, nil) on success
// and (nil, false, nil) if another process already holds it — that is not an
// error, it is the expected outcome for every daemon but the one that wins
// (spec.md §4.1, the cortex SingletonDaemon pattern in
// other_examples/0417ae13_mvp-joe-project-cortex).
func TryAcquireExclusiveLock(path string) (*Lock, bool, error) {
	fl := flock.New(path)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}
	return &Lock{fl: fl}, true, nil
}

// Release gives up the lock. The underlying flock implementation also
// releases automatically if the holding process dies, which is what lets a
// crashed daemon's lock be reclaimed without manual cleanup.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
