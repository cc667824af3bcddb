package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
	"git.home.luguber.info/inful/debforge/internal/logfields"
)

// Manager owns one build workspace directory.
type Manager struct {
	root string
	dir  string
	keep bool
}

// NewEphemeral returns a manager that creates a timestamped directory under
// baseDir and removes it on Cleanup. An empty baseDir means the system temp
// directory.
func NewEphemeral(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{root: baseDir}
}

// NewPersistent returns a manager bound to a fixed directory that survives
// Cleanup, so repeated builds can reuse artifacts between runs.
func NewPersistent(dir string) *Manager {
	return &Manager{root: dir, dir: dir, keep: true}
}

// Create makes the workspace directory. Persistent workspaces are created
// in place; ephemeral ones get a fresh debforge-build-<timestamp> directory.
func (m *Manager) Create() error {
	if m.keep {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return forgeerr.WorkspaceError("create", err)
		}
		slog.Info("Using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	dir := filepath.Join(m.root, "debforge-build-"+time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return forgeerr.WorkspaceError("create", err)
	}
	m.dir = dir
	slog.Info("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory, or "" before Create.
func (m *Manager) Path() string {
	return m.dir
}

// Subdir creates name under the workspace and returns its path.
func (m *Manager) Subdir(name string) (string, error) {
	if m.dir == "" {
		return "", forgeerr.New(forgeerr.CategoryFileSystem, forgeerr.SeverityFatal, "workspace not created")
	}
	sub := filepath.Join(m.dir, name)
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", forgeerr.WorkspaceError("subdir", err)
	}
	return sub, nil
}

// Cleanup removes an ephemeral workspace. Persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" || m.keep {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return forgeerr.WorkspaceError("cleanup", err)
	}
	slog.Info("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
