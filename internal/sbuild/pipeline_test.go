package sbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/debforge/internal/artifact"
	"git.home.luguber.info/inful/debforge/internal/config"
)

// fakeRunner simulates the Debian toolchain by writing the files each tool
// would produce. Every invocation is recorded for assertions.
type fakeRunner struct {
	t        *testing.T
	calls    []string
	failTool string // tool name that should fail
	noDscOut bool   // dpkg-source succeeds but prints no .dsc line
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	f.calls = append(f.calls, name)
	if name == f.failTool {
		return "boom", fmt.Errorf("%s failed: exit status 1", name)
	}
	switch name {
	case "sbuild-createchroot":
		return "chroot created", nil
	case "dpkg-source":
		if f.noDscOut {
			return "dpkg-source: info: using source format '3.0 (native)'\n", nil
		}
		dsc := filepath.Join(dir, "pkg_1.0.dsc")
		require.NoError(f.t, os.WriteFile(dsc, []byte("Format: 3.0 (native)\n"), 0o644))
		return "dpkg-source: info: building pkg in pkg_1.0.dsc\n", nil
	case "sbuild":
		deb := filepath.Join(dir, "pkg_1.0_amd64.deb")
		require.NoError(f.t, os.WriteFile(deb, []byte("deb payload"), 0o644))
		sha, err := artifact.SHA256File(deb)
		require.NoError(f.t, err)
		fi, err := os.Stat(deb)
		require.NoError(f.t, err)
		changes := fmt.Sprintf(`Source: pkg
Version: 1.0
Architecture: amd64
Distribution: bookworm
Checksums-Sha256:
 %s %d pkg_1.0_amd64.deb
Files:
 d41d8cd98f00b204e9800998ecf8427e %d net optional pkg_1.0_amd64.deb
`, sha, fi.Size(), fi.Size())
		require.NoError(f.t, os.WriteFile(filepath.Join(dir, "pkg_1.0_amd64.changes"), []byte(changes), 0o644))
		return "sbuild finished", nil
	}
	return "", nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	artifactDir := t.TempDir()
	sourceDir := filepath.Join(artifactDir, "pkg")
	require.NoError(t, os.MkdirAll(sourceDir, 0o750))

	return &config.Config{
		Package: config.PackageConfig{SourceDir: sourceDir, ArtifactDir: artifactDir},
		Chroot:  config.ChrootConfig{Arch: "amd64", Distribution: "bookworm", Mirror: "http://deb.debian.org/debian", BaseDir: t.TempDir()},
		Output:  config.OutputConfig{ManifestPath: filepath.Join(artifactDir, "debforge-manifest.json")},
	}
}

func TestPipelineSuccess(t *testing.T) {
	schrootConfigDir = t.TempDir() // no chroot registered -> provisioner must run
	cfg := testConfig(t)
	runner := &fakeRunner{t: t}

	p := NewPipeline(cfg, WithRunner(runner))
	report, manifest, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "success", report.Outcome)
	assert.Equal(t, []string{"sbuild-createchroot", "dpkg-source", "sbuild"}, runner.calls)

	require.Len(t, manifest.Artifacts, 1)
	assert.Equal(t, "pkg_1.0_amd64.deb", manifest.Artifacts[0].Name)
	assert.Equal(t, "pkg", manifest.Inputs.Package)
	assert.Equal(t, "1.0", manifest.Inputs.Version)
	assert.Equal(t, "success", manifest.Status)

	// Manifest persisted and loadable.
	loaded, err := artifact.LoadManifest(cfg.Output.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, manifest.ID, loaded.ID)
	assert.Equal(t, report.ID, loaded.ID)
}

func TestPersistedManifestCarriesFinalOutcome(t *testing.T) {
	schrootConfigDir = t.TempDir()
	cfg := testConfig(t)

	p := NewPipeline(cfg, WithRunner(&fakeRunner{t: t}))
	report, _, err := p.Run(context.Background())
	require.NoError(t, err)

	// The file on disk must match what downstream consumers (publish, CI)
	// need: a final status, the run duration, and every stage's timing,
	// including the manifest-writing stage itself.
	loaded, err := artifact.LoadManifest(cfg.Output.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "success", loaded.Status)
	assert.Equal(t, report.Duration().Milliseconds(), loaded.Duration)
	for _, stage := range []StageName{StageProvisionChroot, StageBuildSource, StageBuildBinary, StageLocateArtifacts, StageWriteManifest} {
		timing, ok := loaded.Stages[string(stage)]
		require.True(t, ok, "stage %s missing from persisted manifest", stage)
		assert.Equal(t, "success", timing.Result, "stage %s", stage)
	}
}

func TestPipelineReusesExistingChroot(t *testing.T) {
	schrootConfigDir = t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(schrootConfigDir, "bookworm-amd64-sbuild-ab12cd"),
		[]byte("[bookworm-amd64-sbuild]\n"), 0o644))

	cfg := testConfig(t)
	runner := &fakeRunner{t: t}
	_, _, err := NewPipeline(cfg, WithRunner(runner)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dpkg-source", "sbuild"}, runner.calls, "provisioner must not re-create the chroot")
}

func TestPipelineStopsWhenNoDescriptorProduced(t *testing.T) {
	schrootConfigDir = t.TempDir()
	cfg := testConfig(t)
	runner := &fakeRunner{t: t, noDscOut: true}

	report, _, err := NewPipeline(cfg, WithRunner(runner)).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "failed", report.Outcome)
	assert.NotContains(t, runner.calls, "sbuild", "binary build must not run without a descriptor")
	assert.Equal(t, StageResultFatal, report.StageResults[StageBuildSource])
}

func TestPipelineStopsOnChrootFailure(t *testing.T) {
	schrootConfigDir = t.TempDir()
	cfg := testConfig(t)
	runner := &fakeRunner{t: t, failTool: "sbuild-createchroot"}

	report, _, err := NewPipeline(cfg, WithRunner(runner)).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"sbuild-createchroot"}, runner.calls)
	assert.Equal(t, "failed", report.Outcome)
}

func TestPipelineStopsOnBinaryBuildFailure(t *testing.T) {
	schrootConfigDir = t.TempDir()
	cfg := testConfig(t)
	runner := &fakeRunner{t: t, failTool: "sbuild"}

	report, _, err := NewPipeline(cfg, WithRunner(runner)).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageResultFatal, report.StageResults[StageBuildBinary])
	_, statErr := os.Stat(cfg.Output.ManifestPath)
	assert.True(t, os.IsNotExist(statErr), "manifest stage must not run after a fatal stage")
}

func TestPipelineCancellation(t *testing.T) {
	schrootConfigDir = t.TempDir()
	cfg := testConfig(t)
	runner := &fakeRunner{t: t}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, _, err := NewPipeline(cfg, WithRunner(runner)).Run(ctx)
	require.Error(t, err)
	assert.Equal(t, "canceled", report.Outcome)
	assert.Empty(t, runner.calls, "no tool runs after cancellation")
}

func TestRunStagesWarningContinues(t *testing.T) {
	cfg := testConfig(t)
	report := newBuildReport("test")
	bs := newBuildState(cfg, &fakeRunner{t: t}, report)

	var order []StageName
	stages := []StageDef{
		{Name: "warning_stage", Fn: func(ctx context.Context, bs *BuildState) error {
			order = append(order, "warning_stage")
			return newWarnStageError("warning_stage", fmt.Errorf("minor"))
		}},
		{Name: "next_stage", Fn: func(ctx context.Context, bs *BuildState) error {
			order = append(order, "next_stage")
			return nil
		}},
	}

	err := runStages(context.Background(), bs, stages, nil)
	require.NoError(t, err)
	assert.Equal(t, []StageName{"warning_stage", "next_stage"}, order)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, StageResultWarning, report.StageResults["warning_stage"])
}

func TestReportTimings(t *testing.T) {
	schrootConfigDir = t.TempDir()
	cfg := testConfig(t)
	runner := &fakeRunner{t: t}

	report, _, err := NewPipeline(cfg, WithRunner(runner)).Run(context.Background())
	require.NoError(t, err)

	for _, stage := range []StageName{StageProvisionChroot, StageBuildSource, StageBuildBinary, StageLocateArtifacts, StageWriteManifest} {
		_, ok := report.StageDurations[string(stage)]
		assert.True(t, ok, "missing timing for %s", stage)
	}
	assert.GreaterOrEqual(t, report.Duration(), time.Duration(0))
	assert.False(t, report.FinishedAt.IsZero())
}
