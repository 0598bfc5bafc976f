package reporter

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-reporter/flags"
	"github.com/ethereum-optimism/infra/op-reporter/gotest"
)

// TestSource produces the test events of a session.
type TestSource interface {
	RunTests(ctx context.Context, driver *gotest.EventDriver) error
}

// NewTestSource returns the source selected by the configuration:
// a captured stream when an input is set, otherwise a go test run.
func NewTestSource(cfg *Config, logger log.Logger) TestSource {
	if cfg.ReplaysInput() {
		return &StreamTestSource{
			path:      cfg.Input,
			stdin:     os.Stdin,
			rawEvents: cfg.RawEvents,
			logger:    logger,
		}
	}
	return &GoTestSource{
		testDir:    cfg.TestDir,
		goBinary:   cfg.GoBinary,
		packages:   cfg.Packages,
		runPattern: cfg.RunPattern,
		rawEvents:  cfg.RawEvents,
		logger:     logger,
	}
}

// GoTestSource runs go test -json in the test directory.
type GoTestSource struct {
	testDir    string
	goBinary   string
	packages   []string
	runPattern string
	rawEvents  string
	logger     log.Logger
}

// RunTests runs the tests and feeds their events to driver.
func (s *GoTestSource) RunTests(ctx context.Context, driver *gotest.EventDriver) error {
	raw, closeRaw, err := openRawEvents(s.rawEvents)
	if err != nil {
		return err
	}
	defer closeRaw()

	executor, err := gotest.NewExecutor(gotest.ExecutorConfig{
		TestDir:   s.testDir,
		GoBinary:  s.goBinary,
		Driver:    driver,
		Log:       s.logger,
		RawEvents: raw,
	})
	if err != nil {
		return fmt.Errorf("failed to create test executor: %w", err)
	}
	return executor.Run(ctx, s.packages, s.runPattern)
}

// StreamTestSource replays a captured go test -json stream from a file or stdin.
type StreamTestSource struct {
	path      string
	stdin     io.Reader
	rawEvents string
	logger    log.Logger
}

// RunTests feeds the captured events to driver.
func (s *StreamTestSource) RunTests(ctx context.Context, driver *gotest.EventDriver) error {
	var events io.Reader
	if s.path == flags.StdinInput {
		s.logger.Info("Reading test events from stdin")
		events = s.stdin
	} else {
		s.logger.Info("Reading test events", "path", s.path)
		f, err := os.Open(s.path)
		if err != nil {
			return fmt.Errorf("failed to open test events: %w", err)
		}
		defer f.Close()
		events = f
	}

	raw, closeRaw, err := openRawEvents(s.rawEvents)
	if err != nil {
		return err
	}
	defer closeRaw()
	if raw != nil {
		events = io.TeeReader(events, raw)
	}

	return driver.Consume(ctx, events)
}

// openRawEvents creates the file receiving a copy of the event stream, if one is configured
func openRawEvents(path string) (io.Writer, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create raw events file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
