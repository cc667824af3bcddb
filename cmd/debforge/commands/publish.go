package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/debforge/internal/artifact"
	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/logfields"
	"git.home.luguber.info/inful/debforge/internal/notify"
	"git.home.luguber.info/inful/debforge/internal/publish"
	"git.home.luguber.info/inful/debforge/internal/retry"
)

// PublishCmd implements the 'publish' command. It consumes the build
// manifest written by 'build' rather than globbing the artifact directory,
// or explicit .deb paths when given.
type PublishCmd struct {
	Manifest  string   `short:"m" help:"Path to a build manifest (default: the configured manifest path)"`
	Artifacts []string `arg:"" optional:"" type:"existingfile" help:"Explicit .deb files to upload instead of reading a manifest"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidatePublish(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if len(p.Artifacts) > 0 {
		client := publish.NewClient(cfg.Publish, retry.FromConfig(cfg.Retry))
		arts := make([]artifact.Artifact, 0, len(p.Artifacts))
		for _, path := range p.Artifacts {
			arts = append(arts, artifact.Artifact{Name: filepath.Base(path), Path: path})
		}
		if err := client.UploadAll(ctx, arts); err != nil {
			return err
		}
		fmt.Printf("Published %d artifact(s)\n", len(arts))
		return nil
	}

	manifestPath := p.Manifest
	if manifestPath == "" {
		manifestPath = cfg.Output.ManifestPath
	}
	manifest, err := artifact.LoadManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	if len(manifest.Artifacts) == 0 {
		return fmt.Errorf("manifest %s lists no artifacts", manifestPath)
	}

	if err := publishArtifacts(ctx, cfg, manifest); err != nil {
		return err
	}

	fmt.Printf("Published %d artifact(s) from build %s\n", len(manifest.Artifacts), manifest.ID)
	return nil
}

// publishArtifacts uploads the manifest's artifacts and performs the shared
// post-publish bookkeeping (history flag, notification).
func publishArtifacts(ctx context.Context, cfg *config.Config, manifest *artifact.BuildManifest) error {
	client := publish.NewClient(cfg.Publish, retry.FromConfig(cfg.Retry))
	if err := client.UploadAll(ctx, manifest.Artifacts); err != nil {
		return err
	}

	markPublished(ctx, cfg, manifest.ID)

	if cfg.Notify.Enabled {
		announcer, err := notify.NewAnnouncer(cfg.Notify)
		if err != nil {
			slog.Warn("Notification skipped", logfields.Error(err))
			return nil
		}
		defer func() { _ = announcer.Close() }()
		if err := announcer.AnnouncePublish(manifest.ID, manifest); err != nil {
			slog.Warn("Notification failed", logfields.Error(err))
		}
	}
	return nil
}

func markPublished(ctx context.Context, cfg *config.Config, buildID string) {
	if cfg.History.Disabled {
		return
	}
	store, err := openHistory(cfg)
	if err != nil {
		slog.Warn("History store unavailable", logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.MarkPublished(ctx, buildID); err != nil {
		slog.Warn("Failed to update build history", logfields.Error(err))
	}
}
