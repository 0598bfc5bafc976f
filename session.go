package reporter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-reporter/recorder"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// SessionConfig holds the settings of a reporting session
type SessionConfig struct {
	Log   log.Logger
	RunID string // generated when empty
	Title string

	ReportDir  string
	ReportName string
	// Formatter renders the artifact, defaults to the embedded HTML template
	Formatter reporting.ReportFormatter

	// NameFunc maps a test identity to the name shown in the report
	NameFunc func(id string) string
	// Clock is used for start/end times and the report timestamp, defaults to time.Now
	Clock func() time.Time

	PostWriteHooks  []reporting.PostWriteHook
	MetricsReporter MetricsReporter
}

// Session owns the results of one test run. Hosts feed it through Recorder()
// and call End once to produce the report artifact.
type Session struct {
	log             log.Logger
	runID           string
	collection      *recorder.Collection
	recorder        *recorder.Recorder
	generator       *reporting.ReportGenerator
	metricsReporter MetricsReporter

	endOnce sync.Once
}

// NewSession creates a new session with an empty result collection
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.MetricsReporter == nil {
		cfg.MetricsReporter = NewDefaultMetricsReporter()
	}
	if cfg.Formatter == nil {
		renderer, err := reporting.NewHTMLRenderer("")
		if err != nil {
			return nil, fmt.Errorf("failed to create HTML renderer: %w", err)
		}
		cfg.Formatter = renderer
	}

	logger := cfg.Log.New("run_id", cfg.RunID)
	collection := recorder.NewCollection()
	rec, err := recorder.New(recorder.Config{
		Collection: collection,
		Log:        logger,
		RunID:      cfg.RunID,
		Clock:      cfg.Clock,
		NameFunc:   cfg.NameFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder: %w", err)
	}

	builder := reporting.NewReportBuilder().
		WithTitle(cfg.Title).
		WithRunID(cfg.RunID).
		WithClock(cfg.Clock)
	generator, err := reporting.NewReportGenerator(
		logger,
		reporting.NewArtifactNamer(cfg.ReportDir, cfg.ReportName, reporting.DefaultReportExt),
		builder,
		cfg.Formatter,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report generator: %w", err)
	}
	for _, hook := range cfg.PostWriteHooks {
		generator.WithPostWriteHook(hook)
	}

	return &Session{
		log:             logger,
		runID:           cfg.RunID,
		collection:      collection,
		recorder:        rec,
		generator:       generator,
		metricsReporter: cfg.MetricsReporter,
	}, nil
}

// RunID returns the identifier of this session
func (s *Session) RunID() string {
	return s.runID
}

// Recorder returns the lifecycle hooks hosts report test events to
func (s *Session) Recorder() *recorder.Recorder {
	return s.recorder
}

// Records returns a snapshot of the results recorded so far
func (s *Session) Records() []types.ResultRecord {
	return s.collection.Records()
}

// Summary returns the counts of the results recorded so far
func (s *Session) Summary() types.Summary {
	return s.collection.Summary()
}

// End renders and writes the report artifact and returns its path.
// Only the first call does any work; later calls return ErrSessionEnded.
func (s *Session) End(ctx context.Context) (string, error) {
	var (
		path  string
		err   error
		ended = true
	)
	s.endOnce.Do(func() {
		ended = false
		path, err = s.end(ctx)
	})
	if ended {
		return "", ErrSessionEnded
	}
	return path, err
}

func (s *Session) end(ctx context.Context) (string, error) {
	if pending := s.recorder.Pending(); pending > 0 {
		s.log.Warn("Ending session with tests that never completed", "pending", pending)
	}

	records := s.collection.Records()
	summary := types.Summarize(records)
	s.metricsReporter.ReportResults(s.runID, summary)

	path, err := s.generator.Generate(ctx, records)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	s.log.Info("Session ended", "report", path, "summary", summary.String())
	return path, nil
}

// IsSessionEnded reports whether err signals a repeated End call
func IsSessionEnded(err error) bool {
	return errors.Is(err, ErrSessionEnded)
}
