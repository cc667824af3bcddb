// Package watch implements daemon mode: rebuild the package whenever the
// source tree changes, optionally on a fixed schedule as well, and expose
// Prometheus metrics and a health endpoint while running.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/logfields"
)

// BuildFunc runs one build cycle. The daemon serializes invocations.
type BuildFunc func(ctx context.Context) error

// Daemon watches the package source tree and triggers rebuilds.
type Daemon struct {
	cfg     *config.Config
	build   BuildFunc
	reg     *prom.Registry
	deb     *debouncer
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	building bool
	pending  bool

	rebuildsTotal prom.Counter
	rebuildErrors prom.Counter
}

// NewDaemon builds a daemon around the given build function.
func NewDaemon(cfg *config.Config, build BuildFunc, reg *prom.Registry) *Daemon {
	d := &Daemon{
		cfg:   cfg,
		build: build,
		reg:   reg,
		deb:   newDebouncer(cfg.Watch.Debounce),
		rebuildsTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "debforge",
			Name:      "watch_rebuilds_total",
			Help:      "Rebuilds triggered in watch mode",
		}),
		rebuildErrors: prom.NewCounter(prom.CounterOpts{
			Namespace: "debforge",
			Name:      "watch_rebuild_errors_total",
			Help:      "Rebuilds that ended in error in watch mode",
		}),
	}
	if reg != nil {
		reg.MustRegister(d.rebuildsTotal, d.rebuildErrors)
	}
	return d
}

// Run blocks until the context is canceled, rebuilding on source changes.
// The first build runs immediately on startup.
func (d *Daemon) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	d.watcher = watcher

	if err := d.watchTree(d.cfg.Package.SourceDir); err != nil {
		return err
	}

	var scheduler gocron.Scheduler
	if d.cfg.Watch.Schedule > 0 {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(d.cfg.Watch.Schedule),
			gocron.NewTask(func() {
				slog.Info("Scheduled rebuild triggered")
				d.deb.Trigger()
			}),
			gocron.WithName("periodic-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("failed to create periodic rebuild job: %w", err)
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
	}

	srv := d.startHTTPServer()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go d.deb.Run(ctx)
	go d.watchLoop(ctx)

	slog.Info("Watching source tree",
		logfields.Path(d.cfg.Package.SourceDir),
		slog.Duration("debounce", d.cfg.Watch.Debounce),
		slog.String("listen", d.cfg.Watch.Listen))

	// Initial build so the daemon never sits idle on stale artifacts.
	d.runBuild(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watch mode stopping")
			return nil
		case <-d.deb.Fired():
			d.runBuild(ctx)
		}
	}
}

// watchTree registers the source directory and its subdirectories, skipping
// VCS internals.
func (d *Daemon) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if name := entry.Name(); name == ".git" || name == ".svn" {
			return filepath.SkipDir
		}
		if err := d.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// watchLoop consumes raw filesystem events and feeds the debouncer.
func (d *Daemon) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			slog.Debug("Source change detected",
				logfields.Path(event.Name),
				slog.String("op", event.Op.String()))
			// New directories need to be watched too.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = d.watchTree(event.Name)
				}
			}
			d.deb.Trigger()
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Watcher error", logfields.Error(err))
		}
	}
}

// relevant filters out events that must not trigger rebuilds: chmod noise
// and editor swap/backup files.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasPrefix(base, ".#") {
		return false
	}
	return true
}

// runBuild executes one build, coalescing triggers that arrive mid-build
// into a single follow-up run.
func (d *Daemon) runBuild(ctx context.Context) {
	d.mu.Lock()
	if d.building {
		d.pending = true
		d.mu.Unlock()
		return
	}
	d.building = true
	d.mu.Unlock()

	for {
		d.rebuildsTotal.Inc()
		if err := d.build(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			d.rebuildErrors.Inc()
			slog.Error("Rebuild failed", logfields.Error(err))
		}

		d.mu.Lock()
		if !d.pending || ctx.Err() != nil {
			d.building = false
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()
	}

	d.mu.Lock()
	d.building = false
	d.pending = false
	d.mu.Unlock()
}

func (d *Daemon) startHTTPServer() *http.Server {
	srv := newHTTPServer(d.cfg.Watch.Listen, d.reg)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", logfields.Error(err))
		}
	}()
	return srv
}
