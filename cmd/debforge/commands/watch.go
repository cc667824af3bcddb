package commands

import (
	"context"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/metrics"
	"git.home.luguber.info/inful/debforge/internal/watch"
)

// WatchCmd implements the 'watch' command (daemon mode).
type WatchCmd struct {
	Listen   string        `help:"Override the metrics/health listen address"`
	Schedule time.Duration `help:"Also rebuild on a fixed interval (e.g. 1h)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if w.Listen != "" {
		cfg.Watch.Listen = w.Listen
	}
	if w.Schedule > 0 {
		cfg.Watch.Schedule = w.Schedule
	}

	ctx, cancel := signalContext()
	defer cancel()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	daemon := watch.NewDaemon(cfg, func(ctx context.Context) error {
		_, err := runBuild(ctx, cfg, recorder)
		return err
	}, registry)

	return daemon.Run(ctx)
}
