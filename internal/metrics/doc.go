// Package metrics records aggregation run metrics.
//
// Components receive a Recorder and default to NoopRecorder, so callers never
// check for nil:
//
//	agg := content.New(pb, content.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The CLI gathers the registry after a run and writes it with WriteTextfile
// when --metrics-file is given.
package metrics
