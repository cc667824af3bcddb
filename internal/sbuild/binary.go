package sbuild

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/debforge/internal/config"
	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
	"git.home.luguber.info/inful/debforge/internal/logfields"
)

// BuildBinary runs sbuild inside the chroot against the source descriptor.
// Artifacts (including the .changes file) land in artifactDir.
func BuildBinary(ctx context.Context, runner ToolRunner, cfg config.ChrootConfig, artifactDir, dscPath string) error {
	slog.Info("Building binary package",
		logfields.Chroot(cfg.ChrootName()),
		logfields.Arch(cfg.Arch),
		logfields.Dist(cfg.Distribution),
		logfields.Path(dscPath))

	_, err := runner.Run(ctx, artifactDir, "sbuild",
		"--arch="+cfg.Arch,
		"-c", cfg.ChrootName(),
		"-d", cfg.Distribution,
		dscPath,
	)
	if err != nil {
		return forgeerr.BinaryBuildFailed(dscPath, err)
	}
	return nil
}

// ChangesPath derives the .changes filename sbuild writes for a descriptor:
// pkg_1.0.5.dsc built for amd64 becomes pkg_1.0.5_amd64.changes.
func ChangesPath(artifactDir, dscPath, arch string) string {
	base := strings.TrimSuffix(filepath.Base(dscPath), ".dsc")
	return filepath.Join(artifactDir, fmt.Sprintf("%s_%s.changes", base, arch))
}
