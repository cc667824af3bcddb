package sbuild

import (
	"time"

	"git.home.luguber.info/inful/debforge/internal/metrics"
)

// StageResult enumerates per-stage classification outcomes.
// Mirrors metrics.ResultLabel values to simplify emission.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// BuildReport aggregates the outcome of one pipeline run.
type BuildReport struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	StageDurations map[string]time.Duration
	StageResults   map[StageName]StageResult
	Errors         []*StageError
	Warnings       []*StageError
	Outcome        string // success|failed|canceled
}

func newBuildReport(id string) *BuildReport {
	return &BuildReport{
		ID:             id,
		StartedAt:      time.Now(),
		StageDurations: make(map[string]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

// recordStageResult updates report state and emits metrics (recorder may be noop).
func (r *BuildReport) recordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	r.StageResults[stage] = res
	if recorder == nil {
		return
	}
	switch res {
	case StageResultSuccess:
		recorder.IncStageResult(string(stage), metrics.ResultSuccess)
	case StageResultWarning:
		recorder.IncStageResult(string(stage), metrics.ResultWarning)
	case StageResultFatal:
		recorder.IncStageResult(string(stage), metrics.ResultFatal)
	case StageResultCanceled:
		recorder.IncStageResult(string(stage), metrics.ResultCanceled)
	}
}

// finish stamps the end time and derives the final outcome.
func (r *BuildReport) finish() {
	r.FinishedAt = time.Now()
	r.Outcome = "success"
	for _, res := range r.StageResults {
		switch res {
		case StageResultCanceled:
			r.Outcome = "canceled"
			return
		case StageResultFatal:
			r.Outcome = "failed"
			return
		}
	}
}

// Duration is the wall-clock length of the run.
func (r *BuildReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
