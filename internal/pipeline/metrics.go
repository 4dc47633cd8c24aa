package pipeline

import "time"

// Outcome labels for settled evaluations.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics receives pipeline measurements. monitoring.PipelineMetrics is the
// Prometheus-backed implementation.
type Metrics interface {
	ObserveEvaluation(outcome string, duration time.Duration)
	ObserveSuperseded()
	SetSourceBytes(n int)
	SetResultBytes(n int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveEvaluation(string, time.Duration) {}
func (nopMetrics) ObserveSuperseded()                       {}
func (nopMetrics) SetSourceBytes(int)                       {}
func (nopMetrics) SetResultBytes(int)                       {}
