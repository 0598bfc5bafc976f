package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

const (
	MetricsNamespace = "op_reporter"
)

var (
	Debug                bool = true
	validResults              = []types.TestStatus{types.TestStatusPassed, types.TestStatusFailed}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of recorded test results",
	}, []string{
		"run_id",
		"result",
	})

	testDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "test_duration_seconds",
		Help:      "Duration of recorded tests",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{
		"result",
	})

	sessionTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "session_tests",
		Help:      "Number of tests in a finished session, by result",
	}, []string{
		"run_id",
		"result",
	})

	reportsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "reports_written_total",
		Help:      "Count of report artifacts written to disk",
	})

	reportGenerationDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "report_generation_duration_seconds",
		Help:      "Time spent naming, rendering and writing the last report",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordTest records a single test result
func RecordTest(runID string, result types.TestStatus, duration time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordTest - invalid result", "result", result)
		return
	}
	testsTotal.WithLabelValues(runID, string(result)).Inc()
	testDuration.WithLabelValues(string(result)).Observe(duration.Seconds())
}

// RecordSession records the final counts of a finished session
func RecordSession(runID string, summary types.Summary) {
	if Debug {
		log.Debug("metric set",
			"m", "session_tests",
			"run_id", runID,
			"total", summary.Total,
			"passed", summary.Passed,
			"failed", summary.Failed)
	}
	sessionTests.WithLabelValues(runID, "total").Set(float64(summary.Total))
	sessionTests.WithLabelValues(runID, string(types.TestStatusPassed)).Set(float64(summary.Passed))
	sessionTests.WithLabelValues(runID, string(types.TestStatusFailed)).Set(float64(summary.Failed))
}

// RecordReportWritten records a successfully written report artifact
func RecordReportWritten(elapsed time.Duration) {
	reportsWritten.Inc()
	reportGenerationDuration.Set(elapsed.Seconds())
}

func isValidResult(result types.TestStatus) bool {
	return slices.Contains(validResults, result)
}
