package reporter

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// ResultFormatter is responsible for formatting and displaying test results.
type ResultFormatter interface {
	FormatResults(runID, reportPath string, records []types.ResultRecord) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger  log.Logger
	out     io.Writer
	table   *reporting.TableFormatter
	summary *reporting.TextSummaryFormatter
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger:  logger,
		out:     out,
		table:   reporting.NewTableFormatter("Test Results", true),
		summary: reporting.NewTextSummaryFormatter(false),
	}
}

// FormatResults prints a results table followed by a text summary and the report location.
func (f *ConsoleResultFormatter) FormatResults(runID, reportPath string, records []types.ResultRecord) error {
	f.logger.Info("Printing results...")
	data := reporting.NewReportBuilder().WithRunID(runID).Build(records)

	table, err := f.table.Format(data)
	if err != nil {
		return fmt.Errorf("failed to format results table: %w", err)
	}
	if _, err := fmt.Fprint(f.out, table); err != nil {
		return fmt.Errorf("failed to print results: %w", err)
	}
	summary, err := f.summary.Format(data)
	if err != nil {
		return fmt.Errorf("failed to format results summary: %w", err)
	}
	if _, err := fmt.Fprint(f.out, summary); err != nil {
		return fmt.Errorf("failed to print results: %w", err)
	}
	if reportPath != "" {
		if _, err := fmt.Fprintf(f.out, "Report: %s\n", reportPath); err != nil {
			return fmt.Errorf("failed to print results: %w", err)
		}
	}
	return nil
}
