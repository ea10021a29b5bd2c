package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"gatemini/internal/backend"
	"gatemini/internal/config"
	"gatemini/internal/health"
	"gatemini/internal/ipc"
	"gatemini/internal/metatools"
	"gatemini/internal/registry"
	"gatemini/internal/sandbox"
	"gatemini/internal/session"
	"gatemini/pkg/logging"
)

const subsystem = "App"

// App is one fully-wired gatemini instance: the set of long-lived
// components a daemon (or a --direct single-session run) needs, built once
// at startup and shared by every session thereafter (spec.md §4.11 "fresh
// session sharing the engine and registry by reference").
type App struct {
	cfg      *config.Config
	registry *registry.Registry
	engine   *backend.Engine
	health   *health.Supervisor
	provider *metatools.Provider
	hub      *session.Hub
	sessions *session.Server
	watcher  *config.Watcher

	cachePath string
	saveCache *debouncedSaver
}

// New runs config load through backend startup: decode+expand+resolve the
// config at path, build the registry (optionally warm-started from its
// cache sidecar and optionally semantic-search-enabled), construct the
// backend engine, wire the sandbox dispatcher into the meta-tools provider,
// and start every configured backend. It does not bind any socket; RunDaemon
// binds it afterwards, so config load and backend startup have finished
// before the socket exists.
func New(ctx context.Context, configPath string) (*App, error) {
	config.LoadEnvFiles(configPath)

	a := &App{}

	watcher, err := config.NewWatcher(ctx, configPath, a.applyReload)
	if err != nil {
		return nil, fmt.Errorf("app: load config: %w", err)
	}
	cfg := watcher.Current()
	a.watcher = watcher
	a.cfg = cfg
	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	hub := session.NewHub()
	cachePath := registry.CachePath(cfg.SourcePath())
	saver := newDebouncedSaver(cachePath)

	var regOpts []registry.Option
	if cfg.Semantic.ModelPath != "" {
		// No real embedding-model loader ships in this repository's
		// dependency corpus (see internal/registry/embed.go); the hashed
		// bag-of-words embedder satisfies the same Embedder contract so
		// semantic search is still exercised end to end.
		regOpts = append(regOpts, registry.WithEmbedder(registry.NewHashEmbedder()))
	}
	regOpts = append(regOpts, registry.WithMutationHook(func() {
		hub.NotifyRegistryChanged()
		saver.trigger()
	}))
	reg := registry.New(regOpts...)

	if cacheRec, err := registry.LoadCache(cachePath); err != nil {
		logging.Warn(subsystem, "tool cache unreadable, starting cold: %v", err)
	} else {
		registry.LoadInto(reg, cacheRec)
	}
	saver.bind(reg)

	eng := backend.NewEngine(reg, cfg)
	provider := metatools.NewProvider(reg, eng, nil)
	provider.SetDispatcher(sandbox.New(reg, eng, cfg.Sandbox))

	a.registry = reg
	a.engine = eng
	a.health = health.New(eng, cfg.Health)
	a.provider = provider
	a.hub = hub
	a.sessions = session.NewServer(provider, hub)
	a.cachePath = cachePath
	a.saveCache = saver

	if err := eng.StartAll(ctx, a.cfg); err != nil {
		return nil, fmt.Errorf("app: start backends: %w", err)
	}

	return a, nil
}

// applyReload starts added backends, stops removed ones, and restarts
// changed ones, following the diff config.Watcher computes on every
// hot-reload (spec.md §4.2 "Hot-reload").
func (a *App) applyReload(oldCfg, newCfg *config.Config, diff config.BackendDiff) {
	ctx := context.Background()
	for _, bc := range diff.Added {
		if err := a.engine.Start(ctx, bc); err != nil {
			logging.Warn(subsystem, "hot-reload: start %s: %v", bc.Name, err)
		}
	}
	for _, bc := range diff.Removed {
		if err := a.engine.Stop(ctx, bc.Name); err != nil {
			logging.Warn(subsystem, "hot-reload: stop %s: %v", bc.Name, err)
		}
	}
	for _, changed := range diff.Changed {
		if err := a.engine.Stop(ctx, changed.Old.Name); err != nil {
			logging.Warn(subsystem, "hot-reload: stop changed %s: %v", changed.Old.Name, err)
			continue
		}
		if err := a.engine.Start(ctx, changed.New); err != nil {
			logging.Warn(subsystem, "hot-reload: restart %s: %v", changed.New.Name, err)
		}
	}
}

// RunDaemon binds the IPC socket, starts the health supervisor, then serves
// connections until shutdown (spec.md §4.11). The hot-reload watcher is
// already running, started by New.
func (a *App) RunDaemon(ctx context.Context) error {
	d, err := ipc.NewDaemon(a.handleConn, time.Duration(a.watcher.Current().Daemon.IdleTimeout)*time.Second)
	if err != nil {
		return fmt.Errorf("app: bind daemon socket: %w", err)
	}

	go a.health.Run(ctx)

	err = d.Serve(ctx)
	a.shutdown(ctx)
	return err
}

// RunDirect serves a single in-process session directly over stdio, with no
// daemon or socket involved (spec.md §6 "optional --direct to run a single
// in-process session without daemon/socket").
func (a *App) RunDirect(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	go a.health.Run(ctx)
	err := a.sessions.Serve(ctx, directConn{stdin, stdout})
	a.shutdown(ctx)
	return err
}

func (a *App) handleConn(ctx context.Context, conn net.Conn) {
	if err := a.sessions.Serve(ctx, conn); err != nil {
		logging.Debug(subsystem, "session over socket ended: %v", err)
	}
}

func (a *App) shutdown(ctx context.Context) {
	a.watcher.Stop()
	if err := a.engine.StopAll(ctx); err != nil {
		logging.Warn(subsystem, "stop_all during shutdown: %v", err)
	}
	a.saveCache.flush()
}

// directConn adapts a stdin/stdout pair to the io.ReadWriter Server.Serve
// expects, for --direct mode where there is no net.Conn.
type directConn struct {
	io.Reader
	io.Writer
}
