package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	uploadDuration *prom.HistogramVec
	uploadResults  *prom.CounterVec
	uploadRetries  prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "debforge",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "debforge",
			Name:      "build_duration_seconds",
			Help:      "Total build pipeline duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "debforge",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "debforge",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.uploadDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "debforge",
			Name:      "upload_duration_seconds",
			Help:      "Duration of individual artifact uploads",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.uploadResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "debforge",
			Name:      "upload_results_total",
			Help:      "Upload results by success/failure",
		}, []string{"result"})
		pr.uploadRetries = prom.NewCounter(prom.CounterOpts{
			Namespace: "debforge",
			Name:      "upload_retries_total",
			Help:      "Total upload retries (transient failures)",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.uploadDuration, pr.uploadResults, pr.uploadRetries)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveUploadDuration(d time.Duration, success bool) {
	if p == nil || p.uploadDuration == nil {
		return
	}
	p.uploadDuration.WithLabelValues(resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncUploadResult(success bool) {
	if p == nil || p.uploadResults == nil {
		return
	}
	p.uploadResults.WithLabelValues(resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) IncUploadRetry() {
	if p == nil || p.uploadRetries == nil {
		return
	}
	p.uploadRetries.Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
