package reporting

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// ReportFormatter defines the interface for different report output formats
type ReportFormatter interface {
	Format(data *ReportData) (string, error)
}

// ReportWriter defines the interface for writing reports to various destinations
type ReportWriter interface {
	Write(content string) error
}

// FileWriter writes reports to a file
type FileWriter struct {
	path string
}

// NewFileWriter creates a new file writer
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Write writes the content to the file as UTF-8
func (fw *FileWriter) Write(content string) error {
	if err := os.WriteFile(fw.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write report file %s: %w", fw.path, err)
	}
	return nil
}

// WriteArtifact writes rendered report content to path
func WriteArtifact(path, content string) error {
	return NewFileWriter(path).Write(content)
}

// TableFormatter formats reports as ASCII tables for the console
type TableFormatter struct {
	title        string
	colored      bool
	messageWidth int
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(title string, colored bool) *TableFormatter {
	return &TableFormatter{
		title:        title,
		colored:      colored,
		messageWidth: 80,
	}
}

// Format formats the report data as an ASCII table
func (tf *TableFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(fmt.Sprintf("%s (%s)", tf.title, data.DurationText))

	t.AppendHeader(table.Row{"#", "Test", "Duration", "Status", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Test", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Message", WidthMax: tf.messageWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, test := range data.Tests {
		message := ""
		if test.Status == types.TestStatusFailed {
			message = firstLine(test.Message)
		}
		t.AppendRow(table.Row{
			test.ExecutionOrder,
			test.Name,
			test.DurationText,
			getResultString(test.Status),
			message,
		})
	}

	if tf.colored {
		if data.HasFailures {
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		} else {
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		}
	}

	overallStatus := "PASS"
	if data.HasFailures {
		overallStatus = "FAIL"
	}
	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d passed, %d failed", data.Stats.Passed, data.Stats.Failed),
		data.DurationText,
		overallStatus,
		"",
	})

	t.Render()
	return buf.String(), nil
}

// getResultString returns a symbol-prefixed string for a test status
func getResultString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPassed:
		return "✓ pass"
	default:
		return "✗ fail"
	}
}

// TextSummaryFormatter formats reports as plain text summaries
type TextSummaryFormatter struct {
	includeDetails bool
}

// NewTextSummaryFormatter creates a new text summary formatter
func NewTextSummaryFormatter(includeDetails bool) *TextSummaryFormatter {
	return &TextSummaryFormatter{
		includeDetails: includeDetails,
	}
}

// Format formats the report data as a text summary
func (tsf *TextSummaryFormatter) Format(data *ReportData) (string, error) {
	var summary strings.Builder

	fmt.Fprintf(&summary, "TEST SUMMARY\n")
	fmt.Fprintf(&summary, "============\n")
	fmt.Fprintf(&summary, "Title: %s\n", data.Title)
	if data.RunID != "" {
		fmt.Fprintf(&summary, "Run ID: %s\n", data.RunID)
	}
	fmt.Fprintf(&summary, "Time: %s\n", data.Timestamp.Format(types.TimestampLayout))
	fmt.Fprintf(&summary, "Duration: %s\n\n", data.DurationText)

	fmt.Fprintf(&summary, "Results:\n")
	fmt.Fprintf(&summary, "  Total:   %d\n", data.Stats.Total)
	fmt.Fprintf(&summary, "  Passed:  %d\n", data.Stats.Passed)
	fmt.Fprintf(&summary, "  Failed:  %d\n", data.Stats.Failed)
	fmt.Fprintf(&summary, "\n")

	if len(data.FailedTestNames) > 0 {
		fmt.Fprintf(&summary, "Failed tests:\n")
		for _, test := range data.FailedTestNames {
			fmt.Fprintf(&summary, "  - %s\n", test)
		}
		fmt.Fprintf(&summary, "\n")
	}

	if tsf.includeDetails {
		fmt.Fprintf(&summary, "DETAILED RESULTS:\n")
		fmt.Fprintf(&summary, "=================\n")
		for _, test := range data.Tests {
			fmt.Fprintf(&summary, "%d. %s (%s) [%s]\n", test.ExecutionOrder, test.Name, test.DurationText, test.Status)
			for _, line := range strings.Split(test.Details, "\n") {
				fmt.Fprintf(&summary, "     %s\n", line)
			}
		}
	}

	return summary.String(), nil
}
