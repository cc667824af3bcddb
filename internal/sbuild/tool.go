package sbuild

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"git.home.luguber.info/inful/debforge/internal/logfields"
)

// ToolRunner abstracts external tool invocation so the pipeline can be
// exercised in tests without a Debian toolchain installed.
type ToolRunner interface {
	// Run executes name with args in dir, returning the combined output.
	// A non-zero exit is returned as an error alongside whatever output
	// the tool produced.
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs tools via os/exec, streaming their output through to the
// user while capturing it for parsing.
type ExecRunner struct {
	// Quiet suppresses pass-through of tool output (tests, watch mode).
	Quiet bool
}

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var buf bytes.Buffer
	if r.Quiet {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	} else {
		cmd.Stdout = io.MultiWriter(os.Stdout, &buf)
		cmd.Stderr = io.MultiWriter(os.Stderr, &buf)
	}

	slog.Debug("Running external tool", logfields.Tool(name), logfields.Path(dir), slog.Any("args", args))
	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("%s failed: %w", name, err)
	}
	return buf.String(), nil
}

// The external tools the pipeline depends on, in invocation order.
var RequiredTools = []string{"sbuild-createchroot", "dpkg-source", "sbuild"}

// LookupTool resolves a tool on PATH, returning its location.
func LookupTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return path, nil
}
