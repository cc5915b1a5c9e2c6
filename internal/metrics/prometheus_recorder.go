package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docaggregator"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	loadDuration      *prom.HistogramVec
	loadResults       *prom.CounterVec
	retries           *prom.CounterVec
	references        *prom.CounterVec
	batchFiles        prom.Histogram
	componentVersions prom.Gauge
	runDuration       prom.Histogram
	runOutcome        *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		loadDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "repository_load_duration_seconds",
			Help:      "Duration of making a content repository available",
			Buckets:   prom.DefBuckets,
		}, []string{"operation", "result"}),
		loadResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "repository_load_results_total",
			Help:      "Repository loads by operation and result",
		}, []string{"operation", "result"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transport_retries_total",
			Help:      "Clone and fetch retries after transient failures",
		}, []string{"operation"}),
		references: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "references_selected_total",
			Help:      "References selected for collection by type",
		}, []string{"type"}),
		batchFiles: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_files",
			Help:      "Number of files collected per component version batch",
			Buckets:   prom.ExponentialBuckets(1, 4, 8),
		}),
		componentVersions: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "component_versions",
			Help:      "Component versions in the last aggregate",
		}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total aggregation run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Aggregation runs by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.loadDuration, pr.loadResults, pr.retries, pr.references,
		pr.batchFiles, pr.componentVersions, pr.runDuration, pr.runOutcome)
	return pr
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObserveRepositoryLoad(op Operation, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.loadDuration.WithLabelValues(string(op), result(success)).Observe(d.Seconds())
	p.loadResults.WithLabelValues(string(op), result(success)).Inc()
}

func (p *PrometheusRecorder) IncTransportRetry(op Operation) {
	if p == nil {
		return
	}
	p.retries.WithLabelValues(string(op)).Inc()
}

func (p *PrometheusRecorder) AddReferences(refType string, n int) {
	if p == nil {
		return
	}
	p.references.WithLabelValues(refType).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveBatchFiles(n int) {
	if p == nil {
		return
	}
	p.batchFiles.Observe(float64(n))
}

func (p *PrometheusRecorder) SetComponentVersions(n int) {
	if p == nil {
		return
	}
	p.componentVersions.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}
