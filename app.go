package reporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/op-reporter/gotest"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/service"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// reporterApp implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &reporterApp{}

// reporterApp runs one test session and writes its report.
type reporterApp struct {
	config    *Config
	version   string
	source    TestSource
	console   ResultFormatter
	formatter reporting.ReportFormatter
	service   *service.Service

	mu         sync.Mutex
	reportPath string
	summary    types.Summary

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(config *Config, version string, shutdownCallback func(error)) (*reporterApp, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating reporter with config",
		"testDir", config.TestDir,
		"input", config.Input,
		"reportDir", config.ReportDir,
		"serve", config.Serve)

	var templateContent string
	if config.TemplatePath != "" {
		content, err := os.ReadFile(config.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read report template: %w", err)
		}
		templateContent = string(content)
	}
	renderer, err := reporting.NewHTMLRenderer(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to create report renderer: %w", err)
	}

	svc := service.New(service.Config{
		HealthzEnabled: config.Serve,
		HealthzHost:    config.ServeAddr,
		HealthzPort:    config.ServePort,
		ReportDir:      config.ReportDir,
		MetricsEnabled: config.Metrics.Enabled,
		MetricsHost:    config.Metrics.ListenAddr,
		MetricsPort:    config.Metrics.ListenPort,
	}, config.Log)

	return &reporterApp{
		config:           config,
		version:          version,
		source:           NewTestSource(config, config.Log),
		console:          NewConsoleResultFormatter(config.Log, os.Stdout),
		formatter:        renderer,
		service:          svc,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the tests, writes the report and, unless serving, asks the application to exit.
// Start implements the cliapp.Lifecycle interface.
func (a *reporterApp) Start(ctx context.Context) error {
	a.running.Store(true)
	a.config.Log.Info("Starting op-reporter", "version", a.version)

	if a.service.Enabled() {
		a.service.Start(ctx)
	}

	if err := a.runTests(ctx); err != nil {
		a.config.Log.Error("Runtime error running tests", "error", err)
		return err
	}

	summary := a.Summary()
	if a.config.Serve {
		a.config.Log.Info("Report written, serving reports until interrupted",
			"report", a.ReportPath(),
			"port", a.config.ServePort)
		return nil
	}

	if summary.HasFailures() {
		a.config.Log.Warn("Test run completed with failures, returning exit code 1")
		return NewTestFailureError(summary)
	}

	go func() {
		a.shutdownCallback(nil)
	}()
	return nil
}

// runTests drives one session from the configured source and writes its report
func (a *reporterApp) runTests(ctx context.Context) error {
	var hooks []reporting.PostWriteHook
	if a.config.OpenReport {
		hooks = append(hooks, reporting.OpenInBrowser)
	}

	session, err := NewSession(SessionConfig{
		Log:            a.config.Log,
		Title:          a.config.Title,
		ReportDir:      a.config.ReportDir,
		ReportName:     a.config.ReportName,
		Formatter:      a.formatter,
		NameFunc:       gotest.DisplayName,
		PostWriteHooks: hooks,
	})
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create session: %w", err))
	}

	driver, err := gotest.NewEventDriver(a.config.Log, session.Recorder())
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create event driver: %w", err))
	}

	runErr := a.source.RunTests(ctx, driver)
	if runErr != nil {
		a.config.Log.Error("Test run did not complete, writing partial report", "error", runErr)
	}

	// The report covers whatever was recorded, even after a failed run
	path, err := session.End(ctx)
	if err != nil {
		return NewRuntimeError(err)
	}

	a.mu.Lock()
	a.reportPath = path
	a.summary = session.Summary()
	a.mu.Unlock()

	if err := a.console.FormatResults(session.RunID(), path, session.Records()); err != nil {
		a.config.Log.Warn("Failed to print results", "error", err)
	}

	if runErr != nil {
		return NewRuntimeError(fmt.Errorf("failed to run tests: %w", runErr))
	}
	a.config.Log.Info("Test run completed", "run_id", session.RunID(), "report", path)
	return nil
}

// ReportPath returns the location of the written report
func (a *reporterApp) ReportPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reportPath
}

// Summary returns the counts of the finished run
func (a *reporterApp) Summary() types.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summary
}

// Stop stops the op-reporter service.
// Stop implements the cliapp.Lifecycle interface.
func (a *reporterApp) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping op-reporter")

	if !a.running.Load() {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	a.running.Store(false)

	if a.service.Enabled() {
		a.service.Shutdown()
	}

	a.config.Log.Info("op-reporter stopped successfully")
	return nil
}

// Stopped returns true if the op-reporter service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (a *reporterApp) Stopped() bool {
	return !a.running.Load()
}
