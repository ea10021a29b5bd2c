package app

import (
	"sync"
	"time"

	"gatemini/internal/registry"
	"gatemini/pkg/logging"
)

// saveDebounce bounds how often the tool cache sidecar is rewritten when a
// backend is noisy about restarts: one disk write per burst of mutation
// hook calls, not one per call.
const saveDebounce = 2 * time.Second

// debouncedSaver coalesces repeated registry mutations into a single
// registry.SaveCache call, fired saveDebounce after the last trigger. This is
// the tool-cache consumer registry.WithMutationHook's doc comment names
// ("used by the tool cache to debounce writes", internal/registry/registry.go).
type debouncedSaver struct {
	path string

	mu    sync.Mutex
	reg   *registry.Registry
	timer *time.Timer
}

func newDebouncedSaver(path string) *debouncedSaver {
	return &debouncedSaver{path: path}
}

// bind supplies the registry to snapshot once it exists; trigger calls
// before bind are possible during construction and are simply no-ops.
func (d *debouncedSaver) bind(reg *registry.Registry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reg = reg
}

func (d *debouncedSaver) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reg == nil {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(saveDebounce, d.save)
}

// flush saves immediately, skipping the debounce window. Used on shutdown
// so the last in-flight generation of tools is never lost to a pending
// timer that never gets to fire.
func (d *debouncedSaver) flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.save()
}

func (d *debouncedSaver) save() {
	d.mu.Lock()
	reg := d.reg
	d.mu.Unlock()
	if reg == nil {
		return
	}
	if err := registry.SaveCache(d.path, reg.Snapshot()); err != nil {
		logging.Warn(subsystem, "tool cache save failed: %v", err)
	}
}
