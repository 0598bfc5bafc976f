package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/browser"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// PostWriteHook runs after a report has been written successfully.
// Hook errors are logged and never fail report generation.
type PostWriteHook func(path string) error

// OpenInBrowser opens a written report with the default viewer of the platform
func OpenInBrowser(path string) error {
	return browser.OpenFile(path)
}

// ReportGenerator combines naming, building, formatting and writing of a report artifact
type ReportGenerator struct {
	log       log.Logger
	namer     *ArtifactNamer
	builder   *ReportBuilder
	formatter ReportFormatter
	newWriter func(path string) ReportWriter
	hooks     []PostWriteHook
	tracer    trace.Tracer
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(logger log.Logger, namer *ArtifactNamer, builder *ReportBuilder, formatter ReportFormatter) (*ReportGenerator, error) {
	if namer == nil {
		return nil, errors.New("namer is required")
	}
	if builder == nil {
		return nil, errors.New("builder is required")
	}
	if formatter == nil {
		return nil, errors.New("formatter is required")
	}
	if logger == nil {
		logger = log.Root()
	}

	return &ReportGenerator{
		log:       logger,
		namer:     namer,
		builder:   builder,
		formatter: formatter,
		newWriter: func(path string) ReportWriter { return NewFileWriter(path) },
		tracer:    otel.Tracer("report generator"),
	}, nil
}

// WithWriterFactory overrides how the writer for a report path is created
func (g *ReportGenerator) WithWriterFactory(factory func(path string) ReportWriter) *ReportGenerator {
	if factory != nil {
		g.newWriter = factory
	}
	return g
}

// WithPostWriteHook registers a hook that runs after the report is written
func (g *ReportGenerator) WithPostWriteHook(hook PostWriteHook) *ReportGenerator {
	if hook != nil {
		g.hooks = append(g.hooks, hook)
	}
	return g
}

// Generate writes a new report for records and returns its path.
// Filesystem errors are returned; records are left untouched.
func (g *ReportGenerator) Generate(ctx context.Context, records []types.ResultRecord) (string, error) {
	_, span := g.tracer.Start(ctx, "generate report")
	defer span.End()
	span.SetAttributes(attribute.Int("tests", len(records)))

	start := time.Now()
	path, err := g.generate(records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordErrorDetails("report_generation", err)
		return "", err
	}
	span.SetAttributes(attribute.String("path", path))
	metrics.RecordReportWritten(time.Since(start))
	g.log.Info("Report generated", "path", path, "tests", len(records))

	for _, hook := range g.hooks {
		if err := hook(path); err != nil {
			g.log.Warn("Post-write hook failed", "path", path, "error", err)
		}
	}

	return path, nil
}

func (g *ReportGenerator) generate(records []types.ResultRecord) (string, error) {
	path, err := g.namer.Next()
	if err != nil {
		return "", fmt.Errorf("failed to choose report path: %w", err)
	}

	content, err := g.formatter.Format(g.builder.Build(records))
	if err != nil {
		return "", fmt.Errorf("failed to format report: %w", err)
	}

	if err := g.newWriter(path).Write(content); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
