package config

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"gatemini/pkg/logging"
)

// BackendDiff is the result of comparing two backend sets across a reload
// (spec.md §4.2 "Hot-reload"): backends to start, stop, or restart.
type BackendDiff struct {
	Added   []*BackendConfig
	Removed []*BackendConfig
	Changed []ChangedBackend
}

// ChangedBackend pairs a backend's old and new definitions when something
// about it differs between reloads.
type ChangedBackend struct {
	Old *BackendConfig
	New *BackendConfig
}

// Watcher holds the live config behind an atomic pointer and applies
// file-driven reloads, notifying a callback with the computed backend diff.
type Watcher struct {
	current  atomic.Pointer[Config]
	fw       *fsnotify.Watcher
	onReload func(old, new *Config, diff BackendDiff)
	done     chan struct{}
}

// NewWatcher loads path once synchronously and starts watching its parent
// directory for changes. Watching the directory (not the file itself)
// survives editors that replace-on-save, which unlinks the watched inode.
func NewWatcher(ctx context.Context, path string, onReload func(old, new *Config, diff BackendDiff)) (*Watcher, error) {
	initial, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(initial.SourcePath())); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		fw:       fw,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	w.current.Store(initial)

	go w.run(ctx, initial.SourcePath())
	return w, nil
}

// Current returns the active configuration. Safe to call from any
// goroutine; never blocks a concurrent reload.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// Stop stops watching and releases the underlying fsnotify handle.
func (w *Watcher) Stop() {
	select {
	case <-w.done:
		return
	default:
	}
	close(w.done)
	w.fw.Close()
}

func (w *Watcher) run(ctx context.Context, path string) {
	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload(ctx, path)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logging.Warn("Config-Watcher", "watch error: %v", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context, path string) {
	next, err := Load(ctx, path)
	if err != nil {
		logging.Error("Config-Watcher", err, "hot-reload failed, keeping previous configuration")
		return
	}

	old := w.current.Swap(next)
	diff := DiffBackends(old.Backends, next.Backends)
	logging.Info("Config-Watcher", "reloaded configuration: %d added, %d removed, %d changed",
		len(diff.Added), len(diff.Removed), len(diff.Changed))

	if w.onReload != nil {
		w.onReload(old, next, diff)
	}
}

// DiffBackends computes the set of added, removed, and changed backends
// between two generations of the backends map. Equality is judged on every
// field the backend engine cares about for lifecycle purposes; a changed
// backend is reported as stop-then-start of the same name.
func DiffBackends(oldSet, newSet map[string]*BackendConfig) BackendDiff {
	var diff BackendDiff

	for name, nb := range newSet {
		ob, existed := oldSet[name]
		if !existed {
			diff.Added = append(diff.Added, nb)
			continue
		}
		if !backendsEqual(ob, nb) {
			diff.Changed = append(diff.Changed, ChangedBackend{Old: ob, New: nb})
		}
	}
	for name, ob := range oldSet {
		if _, stillPresent := newSet[name]; !stillPresent {
			diff.Removed = append(diff.Removed, ob)
		}
	}
	return diff
}

func backendsEqual(a, b *BackendConfig) bool {
	if a.Transport != b.Transport || a.Command != b.Command || a.URL != b.URL ||
		a.Cwd != b.Cwd || a.Timeout != b.Timeout || a.Managed != b.Managed {
		return false
	}
	if !stringSlicesEqual(a.Args, b.Args) || !stringSlicesEqual(a.RequiredKeys, b.RequiredKeys) {
		return false
	}
	if !stringMapsEqual(a.Env, b.Env) || !stringMapsEqual(a.Headers, b.Headers) {
		return false
	}
	return prerequisitesEqual(a.Prerequisite, b.Prerequisite)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringMapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func prerequisitesEqual(a, b *PrerequisiteConfig) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.MatchPattern == b.MatchPattern && a.Command == b.Command &&
		a.Managed == b.Managed && a.StartupDelay == b.StartupDelay &&
		stringSlicesEqual(a.Args, b.Args) && stringMapsEqual(a.Env, b.Env)
}
