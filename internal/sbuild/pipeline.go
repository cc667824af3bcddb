// Package sbuild drives a Debian package build through sbuild chroots as a
// staged pipeline: provision the chroot, build the source package, build the
// binary package, locate the artifacts, and write a build manifest.
package sbuild

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/debforge/internal/artifact"
	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/logfields"
	"git.home.luguber.info/inful/debforge/internal/metrics"
)

// Pipeline orchestrates one build end to end.
type Pipeline struct {
	cfg      *config.Config
	runner   ToolRunner
	recorder metrics.Recorder
	stages   []StageDef
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the external tool runner (tests).
func WithRunner(r ToolRunner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// NewPipeline builds a pipeline for the given configuration.
func NewPipeline(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		runner:   &ExecRunner{},
		recorder: metrics.NoopRecorder{},
		stages:   defaultStages(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline. The returned report is always non-nil; the
// manifest reflects whatever state the run reached.
func (p *Pipeline) Run(ctx context.Context) (*BuildReport, *artifact.BuildManifest, error) {
	buildID := uuid.NewString()
	report := newBuildReport(buildID)
	bs := newBuildState(p.cfg, p.runner, report)
	bs.Manifest = &artifact.BuildManifest{
		ID:        buildID,
		Timestamp: report.StartedAt,
		Inputs: artifact.Inputs{
			Architecture: p.cfg.Chroot.Arch,
			Distribution: p.cfg.Chroot.Distribution,
			SourceDir:    p.cfg.Package.SourceDir,
		},
		Stages: make(map[string]artifact.StageTiming),
	}

	slog.Info("Starting package build",
		logfields.BuildID(buildID),
		logfields.Arch(p.cfg.Chroot.Arch),
		logfields.Dist(p.cfg.Chroot.Distribution),
		logfields.Path(p.cfg.Package.SourceDir))

	err := runStages(ctx, bs, p.stages, p.recorder)
	report.finish()
	bs.Manifest.Status = report.Outcome
	bs.Manifest.Duration = report.Duration().Milliseconds()

	// The manifest stage ran before the report closed, so the file on disk
	// lacks the final duration and the manifest stage's own timing.
	// Re-persist now that both are known.
	if report.StageResults[StageWriteManifest] == StageResultSuccess {
		fillStageTimings(bs.Manifest, report)
		if werr := bs.Manifest.WriteFile(p.cfg.Output.ManifestPath); werr != nil {
			slog.Warn("Failed to finalize build manifest", logfields.Error(werr))
		}
	}

	if p.recorder != nil {
		p.recorder.ObserveBuildDuration(report.Duration())
		p.recorder.IncBuildOutcome(report.Outcome)
	}

	if err != nil {
		slog.Error("Build failed",
			logfields.BuildID(buildID),
			logfields.Status(report.Outcome),
			logfields.Error(err),
			logfields.DurationMS(float64(report.Duration().Milliseconds())))
		return report, bs.Manifest, err
	}

	slog.Info("Build completed",
		logfields.BuildID(buildID),
		logfields.Status(report.Outcome),
		slog.Int("artifacts", len(bs.Artifacts)),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	return report, bs.Manifest, nil
}
