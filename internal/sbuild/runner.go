package sbuild

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/debforge/internal/metrics"
)

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled stage. Warnings are recorded and execution
// continues; everything else aborts.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef, recorder metrics.Recorder) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.recordStageResult(st.Name, StageResultCanceled, recorder)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[string(st.Name)] = dur
		if recorder != nil {
			recorder.ObserveStageDuration(string(st.Name), dur)
		}

		if err == nil {
			bs.Report.recordStageResult(st.Name, StageResultSuccess, recorder)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Wrap unknown errors as fatal by default.
			se = newFatalStageError(st.Name, err)
		}
		switch se.Kind {
		case StageErrorWarning:
			bs.Report.Warnings = append(bs.Report.Warnings, se)
			bs.Report.recordStageResult(st.Name, StageResultWarning, recorder)
			continue
		case StageErrorCanceled:
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.recordStageResult(st.Name, StageResultCanceled, recorder)
			return se
		default: // fatal
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.recordStageResult(st.Name, StageResultFatal, recorder)
			return se
		}
	}
	return nil
}
