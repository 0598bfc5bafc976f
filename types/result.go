package types

import (
	"fmt"
	"strings"
	"time"
)

// TestStatus represents the outcome of a single test execution
type TestStatus string

const (
	TestStatusPassed TestStatus = "PASSED"
	TestStatusFailed TestStatus = "FAILED"
)

const (
	// SuccessMessage is the message recorded for every passing test
	SuccessMessage = "Test executed successfully. All assertions passed."

	// AssertionFailedPrefix and ErrorOccurredPrefix prefix failure messages
	AssertionFailedPrefix = "Assertion Failed: "
	ErrorOccurredPrefix   = "Error Occurred: "

	// NoDataPayload is stored when a test attached no payload
	NoDataPayload = "No Data"
	// UnavailablePayload is stored when the attached payload could not be retrieved
	UnavailablePayload = "N/A"

	// TimestampLayout is used for timestamps shown in reports
	TimestampLayout = "2006-01-02 15:04:05"
)

// ResultRecord captures the outcome of a single test run.
// Records are not modified once appended to a collection.
type ResultRecord struct {
	TestName string
	Status   TestStatus
	Message  string
	Payload  string
	Duration time.Duration
}

// FormattedDuration returns the record duration as seconds with two decimals, e.g. "0.25 s"
func (r ResultRecord) FormattedDuration() string {
	return FormatDuration(r.Duration)
}

// Passed reports whether the record has the PASSED status
func (r ResultRecord) Passed() bool {
	return r.Status == TestStatusPassed
}

// FormatDuration formats d as seconds with two decimals and a unit suffix.
// Negative durations are clamped to zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}

// FailureMessage builds the display message for a failed test.
// Details mentioning "assert" are reported as assertion failures, anything else as an error.
// The classification never affects the status of the record.
func FailureMessage(detail string) string {
	if strings.Contains(detail, "assert") {
		return AssertionFailedPrefix + detail
	}
	return ErrorOccurredPrefix + detail
}

// Summary contains aggregated statistics for a set of results
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	PassRate float64
}

// Summarize partitions records by status
func Summarize(records []ResultRecord) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		switch r.Status {
		case TestStatusPassed:
			s.Passed++
		case TestStatusFailed:
			s.Failed++
		}
	}
	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}
	return s
}

// HasFailures returns true if at least one result failed
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// String returns a one-line description of the summary
func (s Summary) String() string {
	return fmt.Sprintf("Total: %d, Passed: %d, Failed: %d", s.Total, s.Passed, s.Failed)
}
