package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// DefaultTitle is used when no report title is configured
const DefaultTitle = "Test Execution Report"

// ReportTestItem represents a single row in the report
type ReportTestItem struct {
	ExecutionOrder int
	Name           string
	Status         types.TestStatus
	Duration       time.Duration
	DurationText   string
	Message        string
	Payload        string
	Details        string // message and payload, one per line
}

// ReportData contains all the structured data needed for any report format
type ReportData struct {
	// Run Information
	Title        string
	RunID        string
	Timestamp    time.Time
	Duration     time.Duration
	DurationText string

	// Overall Statistics
	Stats        types.Summary
	PassRateText string
	HasFailures  bool

	// Rows in execution order
	Tests []ReportTestItem

	// Summary Lists
	FailedTestNames []string
}

// ReportBuilder constructs ReportData from recorded results
type ReportBuilder struct {
	title string
	runID string
	clock func() time.Time
}

// NewReportBuilder creates a new report builder
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{
		title: DefaultTitle,
		clock: time.Now,
	}
}

// WithTitle sets the report title
func (rb *ReportBuilder) WithTitle(title string) *ReportBuilder {
	if title != "" {
		rb.title = title
	}
	return rb
}

// WithRunID sets the run identifier shown in the report
func (rb *ReportBuilder) WithRunID(runID string) *ReportBuilder {
	rb.runID = runID
	return rb
}

// WithClock overrides the source of the generation timestamp
func (rb *ReportBuilder) WithClock(clock func() time.Time) *ReportBuilder {
	if clock != nil {
		rb.clock = clock
	}
	return rb
}

// Build creates ReportData from records. Rows keep the order of the input.
func (rb *ReportBuilder) Build(records []types.ResultRecord) *ReportData {
	report := &ReportData{
		Title:           rb.title,
		RunID:           rb.runID,
		Timestamp:       rb.clock(),
		Stats:           types.Summarize(records),
		Tests:           make([]ReportTestItem, 0, len(records)),
		FailedTestNames: make([]string, 0),
	}

	var totalDuration time.Duration
	for i, r := range records {
		report.Tests = append(report.Tests, ReportTestItem{
			ExecutionOrder: i + 1,
			Name:           r.TestName,
			Status:         r.Status,
			Duration:       r.Duration,
			DurationText:   r.FormattedDuration(),
			Message:        r.Message,
			Payload:        r.Payload,
			Details:        r.Message + "\n" + r.Payload,
		})
		totalDuration += r.Duration

		if r.Status == types.TestStatusFailed {
			report.FailedTestNames = append(report.FailedTestNames, r.TestName)
		}
	}

	report.Duration = totalDuration
	report.DurationText = types.FormatDuration(totalDuration)
	report.PassRateText = fmt.Sprintf("%.1f", report.Stats.PassRate)
	report.HasFailures = report.Stats.HasFailures()

	return report
}

// firstLine returns the first line of s, used where multi-line messages do not fit
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}
