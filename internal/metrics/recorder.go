package metrics

import "time"

// Operation labels the way a repository was made available to a run.
type Operation string

const (
	OpClone Operation = "clone"
	OpFetch Operation = "fetch"
	OpCache Operation = "cache" // reused a valid cached clone
	OpLocal Operation = "local" // opened a local repository
)

// OutcomeLabel enumerates final aggregation outcomes.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeFailed  OutcomeLabel = "failed"
)

// Recorder defines observability hooks for an aggregation run. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveRepositoryLoad(op Operation, d time.Duration, success bool)
	IncTransportRetry(op Operation)
	AddReferences(refType string, n int)
	ObserveBatchFiles(n int)
	SetComponentVersions(n int)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome OutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRepositoryLoad(Operation, time.Duration, bool) {}
func (NoopRecorder) IncTransportRetry(Operation)                          {}
func (NoopRecorder) AddReferences(string, int)                            {}
func (NoopRecorder) ObserveBatchFiles(int)                                {}
func (NoopRecorder) SetComponentVersions(int)                             {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                     {}
func (NoopRecorder) IncRunOutcome(OutcomeLabel)                           {}
