package reporter

import (
	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// MetricsReporter is responsible for reporting metrics from a finished session.
type MetricsReporter interface {
	ReportResults(runID string, summary types.Summary)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults reports the session summary to metrics systems.
func (r *DefaultMetricsReporter) ReportResults(runID string, summary types.Summary) {
	metrics.RecordSession(runID, summary)
}
