package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/logfields"
	"git.home.luguber.info/inful/debforge/internal/metrics"
	"git.home.luguber.info/inful/debforge/internal/workspace"
)

// ReleaseCmd implements the 'release' command: build, then publish the
// resulting artifacts in the same run.
type ReleaseCmd struct {
	Ephemeral bool `help:"Build into a throwaway workspace that is removed after publishing"`
}

func (r *ReleaseCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Fail on missing credentials before spending minutes on the build.
	if err := cfg.ValidatePublish(); err != nil {
		return err
	}

	if r.Ephemeral {
		ws := workspace.NewEphemeral("")
		if err := ws.Create(); err != nil {
			return err
		}
		defer func() {
			if err := ws.Cleanup(); err != nil {
				slog.Warn("Failed to cleanup workspace", logfields.Error(err))
			}
		}()
		cfg.Package.ArtifactDir = ws.Path()
		cfg.Output.ManifestPath = filepath.Join(ws.Path(), "debforge-manifest.json")
	}

	ctx, cancel := signalContext()
	defer cancel()

	manifest, err := runBuild(ctx, cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	if err := publishArtifacts(ctx, cfg, manifest); err != nil {
		return err
	}

	fmt.Printf("Released build %s: %d artifact(s) published\n", manifest.ID, len(manifest.Artifacts))
	return nil
}
