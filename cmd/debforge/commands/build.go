package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/metrics"
	"git.home.luguber.info/inful/debforge/internal/workspace"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Arch      string `help:"Override the build architecture"`
	Dist      string `help:"Override the target distribution"`
	Workspace string `help:"Build into a persistent workspace directory that is kept between runs" type:"path"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if b.Arch != "" {
		cfg.Chroot.Arch = b.Arch
	}
	if b.Dist != "" {
		cfg.Chroot.Distribution = b.Dist
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if b.Workspace != "" {
		ws := workspace.NewPersistent(b.Workspace)
		if err := ws.Create(); err != nil {
			return err
		}
		artifactDir, err := ws.Subdir("artifacts")
		if err != nil {
			return err
		}
		cfg.Package.ArtifactDir = artifactDir
		cfg.Output.ManifestPath = filepath.Join(artifactDir, "debforge-manifest.json")
	}

	ctx, cancel := signalContext()
	defer cancel()

	manifest, err := runBuild(ctx, cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	fmt.Printf("Build %s succeeded: %d artifact(s), manifest at %s\n",
		manifest.ID, len(manifest.Artifacts), cfg.Output.ManifestPath)
	return nil
}
