package commands

import (
	"fmt"
	"os"
	"strings"

	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/sbuild"
)

// DoctorCmd implements the 'doctor' command: verify the host has everything
// a build needs before sinking time into one.
type DoctorCmd struct{}

func (d *DoctorCmd) Run(_ *Global, root *CLI) error {
	failures := 0

	ctx, cancel := signalContext()
	defer cancel()

	runner := &sbuild.ExecRunner{Quiet: true}
	for _, tool := range sbuild.RequiredTools {
		path, err := sbuild.LookupTool(tool)
		if err != nil {
			fmt.Printf("MISSING  %s (install the sbuild/dpkg-dev packages)\n", tool)
			failures++
			continue
		}
		version := "unknown version"
		if out, err := runner.Run(ctx, "", tool, "--version"); err == nil {
			version = firstLine(out)
		}
		fmt.Printf("ok       %s -> %s (%s)\n", tool, path, version)
	}

	cfg, err := config.Load(root.Config)
	if err != nil {
		fmt.Printf("MISSING  configuration: %v\n", err)
		failures++
	} else {
		fmt.Printf("ok       configuration %s (chroot %s)\n", root.Config, cfg.Chroot.ChrootName())
		if err := cfg.ValidatePublish(); err != nil {
			fmt.Printf("warn     publish credentials: %v\n", err)
		} else {
			fmt.Printf("ok       publish credentials for account %s\n", cfg.Publish.Account)
		}
		if _, err := os.Stat(cfg.Package.SourceDir); err != nil {
			fmt.Printf("MISSING  source dir %s\n", cfg.Package.SourceDir)
			failures++
		} else {
			fmt.Printf("ok       source dir %s\n", cfg.Package.SourceDir)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d problem(s) found", failures)
	}
	fmt.Println("All checks passed.")
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
