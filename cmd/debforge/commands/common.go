package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/debforge/internal/artifact"
	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/history"
	"git.home.luguber.info/inful/debforge/internal/logfields"
	"git.home.luguber.info/inful/debforge/internal/metrics"
	"git.home.luguber.info/inful/debforge/internal/notify"
	"git.home.luguber.info/inful/debforge/internal/sbuild"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"debforge.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the package in an sbuild chroot"`
	Publish PublishCmd `cmd:"" help:"Upload built artifacts to the package repository"`
	Release ReleaseCmd `cmd:"" help:"Build and publish in one run"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"Show recent build records"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild automatically when the source tree changes"`
	Doctor  DoctorCmd  `cmd:"" help:"Check that required build tools are available"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runBuild drives one pipeline run and handles the post-build bookkeeping
// every entry point shares: history recording and notifications. Bookkeeping
// failures are warnings, never build failures.
func runBuild(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) (*artifact.BuildManifest, error) {
	pipeline := sbuild.NewPipeline(cfg, sbuild.WithRecorder(recorder))
	_, manifest, err := pipeline.Run(ctx)

	if manifest != nil {
		recordHistory(ctx, cfg, manifest)
		notify.Announce(cfg.Notify, manifest)
	}
	return manifest, err
}

func recordHistory(ctx context.Context, cfg *config.Config, m *artifact.BuildManifest) {
	if cfg.History.Disabled {
		return
	}
	store, err := openHistory(cfg)
	if err != nil {
		slog.Warn("History store unavailable", logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.RecordBuild(ctx, m); err != nil {
		slog.Warn("Failed to record build history", logfields.Error(err))
	}
}

func openHistory(cfg *config.Config) (history.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		return nil, err
	}
	return history.NewSQLiteStore(cfg.History.Path)
}
