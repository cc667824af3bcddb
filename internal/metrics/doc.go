// Package metrics provides observability hooks for build and upload metrics.
//
// It implements the Null Object pattern: components receive a Recorder
// through dependency injection and default to NoopRecorder, so metrics
// collection needs no nil checks and costs nothing when disabled. Watch
// mode swaps in PrometheusRecorder and serves the registry on /metrics.
package metrics
