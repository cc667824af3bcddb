package sbuild

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/debforge/internal/artifact"
	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/logfields"
)

// Stage is a discrete unit of work in the build pipeline.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Cfg      *config.Config
	Runner   ToolRunner
	Report   *BuildReport
	Manifest *artifact.BuildManifest

	DescriptorPath string
	ChangesPath    string
	Artifacts      []artifact.Artifact
}

// newBuildState constructs a BuildState for one pipeline run.
func newBuildState(cfg *config.Config, runner ToolRunner, report *BuildReport) *BuildState {
	return &BuildState{
		Cfg:    cfg,
		Runner: runner,
		Report: report,
	}
}

// Stage implementations.

func stageProvisionChroot(ctx context.Context, bs *BuildState) error {
	p := NewProvisioner(bs.Runner, bs.Cfg.Chroot)
	if err := p.Ensure(ctx); err != nil {
		return newFatalStageError(StageProvisionChroot, err)
	}
	return nil
}

func stageBuildSource(ctx context.Context, bs *BuildState) error {
	dsc, err := BuildSource(ctx, bs.Runner, bs.Cfg.Package.SourceDir, bs.Cfg.Package.ArtifactDir)
	if err != nil {
		return newFatalStageError(StageBuildSource, err)
	}
	bs.DescriptorPath = dsc
	return nil
}

func stageBuildBinary(ctx context.Context, bs *BuildState) error {
	if bs.DescriptorPath == "" {
		return newFatalStageError(StageBuildBinary, fmt.Errorf("no source descriptor available"))
	}
	if err := BuildBinary(ctx, bs.Runner, bs.Cfg.Chroot, bs.Cfg.Package.ArtifactDir, bs.DescriptorPath); err != nil {
		return newFatalStageError(StageBuildBinary, err)
	}
	bs.ChangesPath = ChangesPath(bs.Cfg.Package.ArtifactDir, bs.DescriptorPath, bs.Cfg.Chroot.Arch)
	return nil
}

func stageLocateArtifacts(ctx context.Context, bs *BuildState) error {
	artifacts, err := artifact.Locate(bs.Cfg.Package.ArtifactDir, bs.ChangesPath)
	if err != nil {
		return newFatalStageError(StageLocateArtifacts, err)
	}
	bs.Artifacts = artifacts
	for _, a := range artifacts {
		slog.Info("Artifact located", logfields.Artifact(a.Name), slog.Int64("size", a.Size))
	}
	return nil
}

func stageWriteManifest(ctx context.Context, bs *BuildState) error {
	m := bs.Manifest
	m.Artifacts = bs.Artifacts
	m.Descriptor = bs.DescriptorPath
	m.Changes = bs.ChangesPath
	m.StampGit(bs.Cfg.Package.SourceDir)

	if cf, err := artifact.ParseChanges(bs.ChangesPath); err == nil {
		m.Inputs.Package = cf.Source
		m.Inputs.Version = cf.Version
	}

	// Every earlier stage succeeded or the pipeline would have aborted, so
	// the persisted status is meaningful even before the run finishes. The
	// pipeline re-persists with the final duration and this stage's own
	// timing once the report is closed.
	m.Status = "success"
	m.Duration = time.Since(bs.Report.StartedAt).Milliseconds()
	fillStageTimings(m, bs.Report)

	if err := m.WriteFile(bs.Cfg.Output.ManifestPath); err != nil {
		// The build itself succeeded; a missing manifest only degrades
		// downstream convenience.
		return newWarnStageError(StageWriteManifest, err)
	}
	slog.Info("Build manifest written", logfields.Path(bs.Cfg.Output.ManifestPath))
	return nil
}

// defaultStages returns the canonical pipeline in execution order.
func defaultStages() []StageDef {
	return []StageDef{
		{Name: StageProvisionChroot, Fn: stageProvisionChroot},
		{Name: StageBuildSource, Fn: stageBuildSource},
		{Name: StageBuildBinary, Fn: stageBuildBinary},
		{Name: StageLocateArtifacts, Fn: stageLocateArtifacts},
		{Name: StageWriteManifest, Fn: stageWriteManifest},
	}
}

// stageResult is a presentation helper for manifest stage entries.
func (r *BuildReport) stageResult(stage StageName) StageResult {
	if res, ok := r.StageResults[stage]; ok {
		return res
	}
	return StageResultSuccess
}

// fillStageTimings copies the report's stage timings and results into the
// manifest's stage map.
func fillStageTimings(m *artifact.BuildManifest, r *BuildReport) {
	for name, d := range r.StageDurations {
		m.Stages[name] = artifact.StageTiming{
			DurationMS: d.Milliseconds(),
			Result:     string(r.stageResult(StageName(name))),
		}
	}
}
