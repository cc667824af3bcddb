package sbuild

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/debforge/internal/config"
	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
	"git.home.luguber.info/inful/debforge/internal/logfields"
)

// schrootConfigDir is where sbuild-createchroot registers chroots.
// Overridable for tests.
var schrootConfigDir = "/etc/schroot/chroot.d"

// Provisioner creates or reuses the sbuild chroot for an arch/distribution pair.
type Provisioner struct {
	runner ToolRunner
	cfg    config.ChrootConfig
}

// NewProvisioner returns a provisioner using the given runner.
func NewProvisioner(runner ToolRunner, cfg config.ChrootConfig) *Provisioner {
	return &Provisioner{runner: runner, cfg: cfg}
}

// Ensure makes the chroot available, reusing an existing registration when
// one is present. Provisioning failure is fatal for the whole pipeline.
func (p *Provisioner) Ensure(ctx context.Context) error {
	name := p.cfg.ChrootName()
	if p.exists(name) {
		slog.Info("Reusing existing chroot", logfields.Chroot(name))
		return nil
	}

	target := filepath.Join(p.cfg.BaseDir, name)
	slog.Info("Creating chroot",
		logfields.Chroot(name),
		logfields.Arch(p.cfg.Arch),
		logfields.Dist(p.cfg.Distribution),
		logfields.Path(target))

	_, err := p.runner.Run(ctx, "", "sbuild-createchroot",
		"--arch="+p.cfg.Arch,
		p.cfg.Distribution,
		target,
		p.cfg.Mirror,
	)
	if err != nil {
		return forgeerr.ChrootFailed(name, err)
	}
	return nil
}

// exists reports whether schroot already knows a chroot by this name.
// sbuild-createchroot writes a config file named <name>-<suffix> under the
// schroot config directory.
func (p *Provisioner) exists(name string) bool {
	matches, err := filepath.Glob(filepath.Join(schrootConfigDir, name+"*"))
	if err != nil || len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			return true
		}
	}
	return false
}
