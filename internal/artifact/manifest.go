package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
)

// BuildManifest is a complete record of a build's inputs and outputs. It is
// the structured replacement for scraping tool output: downstream steps
// (publish, CI) consume this instead of globbing the artifact directory.
type BuildManifest struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	Inputs     Inputs                 `json:"inputs"`
	Artifacts  []Artifact             `json:"artifacts"`
	Descriptor string                 `json:"descriptor"` // .dsc path
	Changes    string                 `json:"changes,omitempty"`
	Stages     map[string]StageTiming `json:"stages"`
	Status     string                 `json:"status"`
	Duration   int64                  `json:"duration_ms"`
}

// Inputs captures what was built, where, and from which source revision.
type Inputs struct {
	Package      string `json:"package,omitempty"`
	Version      string `json:"version,omitempty"`
	Architecture string `json:"architecture"`
	Distribution string `json:"distribution"`
	SourceDir    string `json:"source_dir"`
	GitCommit    string `json:"git_commit,omitempty"`
	GitDirty     bool   `json:"git_dirty,omitempty"`
}

// StageTiming records how a single stage went.
type StageTiming struct {
	DurationMS int64  `json:"duration_ms"`
	Result     string `json:"result"`
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// WriteFile persists the manifest to path.
func (m *BuildManifest) WriteFile(path string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest from path.
func LoadManifest(path string) (*BuildManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}

// StampGit records the HEAD commit (and worktree dirtiness) of the source
// directory into the manifest inputs. A source dir that is not a git
// repository is not an error; the fields stay empty.
func (m *BuildManifest) StampGit(sourceDir string) {
	repo, err := git.PlainOpenWithOptions(sourceDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return
	}
	head, err := repo.Head()
	if err != nil {
		return
	}
	m.Inputs.GitCommit = head.Hash().String()

	wt, err := repo.Worktree()
	if err != nil {
		return
	}
	status, err := wt.Status()
	if err != nil {
		return
	}
	m.Inputs.GitDirty = !status.IsClean()
}
