package artifact

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {
	m := &BuildManifest{
		ID:        "build-123",
		Timestamp: time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
		Inputs: Inputs{
			Package:      "profiler",
			Version:      "1.0.5",
			Architecture: "amd64",
			Distribution: "bookworm",
			SourceDir:    "/work/profiler",
			GitCommit:    "abc123",
		},
		Artifacts: []Artifact{
			{Name: "profiler_1.0.5_amd64.deb", Path: "/work/profiler_1.0.5_amd64.deb", Size: 1024, SHA256: "ff00"},
		},
		Descriptor: "/work/profiler_1.0.5.dsc",
		Stages: map[string]StageTiming{
			"build_binary": {DurationMS: 4200, Result: "success"},
		},
		Status:   "success",
		Duration: 5000,
	}

	path := filepath.Join(t.TempDir(), "debforge-manifest.json")
	require.NoError(t, m.WriteFile(path))

	restored, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, m.ID, restored.ID)
	assert.Equal(t, m.Inputs, restored.Inputs)
	require.Len(t, restored.Artifacts, 1)
	assert.Equal(t, m.Artifacts[0], restored.Artifacts[0])
	assert.Equal(t, "success", restored.Stages["build_binary"].Result)
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	_, err := FromJSON([]byte("{not json"))
	require.Error(t, err)
}

func TestStampGitOutsideRepository(t *testing.T) {
	m := &BuildManifest{}
	// Must be a no-op, not an error, when the source dir is not a repo.
	m.StampGit(t.TempDir())
	assert.Empty(t, m.Inputs.GitCommit)
	assert.False(t, m.Inputs.GitDirty)
}
