package reporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/op-reporter/flags"
	"github.com/ethereum-optimism/infra/op-reporter/gotest"
)

// Config holds the application configuration
type Config struct {
	TestDir      string   // Module whose tests are run
	Packages     []string // Packages passed to go test
	RunPattern   string   // Optional -run filter
	Input        string   // Captured event stream; when set no tests are executed
	GoBinary     string
	ReportDir    string
	ReportName   string
	Title        string
	TemplatePath string // Optional replacement for the built-in HTML layout
	OpenReport   bool   // Open the written report in a browser
	RawEvents    string // Optional file receiving the unmodified event stream
	Serve        bool   // Keep serving healthz and reports after the run
	ServeAddr    string
	ServePort    int
	Metrics      opmetrics.CLIConfig
	Log          log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	input := ctx.String(flags.Input.Name)
	testDir := ctx.String(flags.TestDir.Name)
	if testDir == "" {
		return nil, errors.New("test directory is required")
	}

	absTestDir, err := filepath.Abs(testDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for test directory '%s': %w", testDir, err)
	}
	if input == "" {
		info, err := os.Stat(absTestDir)
		if err != nil {
			return nil, fmt.Errorf("failed to access test directory '%s': %w", testDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("test directory '%s' is not a directory", testDir)
		}
	}

	if input != "" && input != flags.StdinInput {
		input, err = filepath.Abs(input)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for input '%s': %w", ctx.String(flags.Input.Name), err)
		}
		if _, err := os.Stat(input); err != nil {
			return nil, fmt.Errorf("failed to access input '%s': %w", ctx.String(flags.Input.Name), err)
		}
	}

	reportDir, err := filepath.Abs(ctx.String(flags.ReportDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for report directory '%s': %w", ctx.String(flags.ReportDir.Name), err)
	}

	title := ctx.String(flags.Title.Name)
	if title == "" {
		title = gotest.ReportTitle(absTestDir)
	}

	var templatePath string
	if p := ctx.String(flags.Template.Name); p != "" {
		templatePath, err = filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for template '%s': %w", p, err)
		}
	}

	var rawEvents string
	if p := ctx.String(flags.RawEvents.Name); p != "" {
		rawEvents, err = filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for raw events '%s': %w", p, err)
		}
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if err := metricsCfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	return &Config{
		TestDir:      absTestDir,
		Packages:     ctx.StringSlice(flags.Packages.Name),
		RunPattern:   ctx.String(flags.Run.Name),
		Input:        input,
		GoBinary:     ctx.String(flags.GoBinary.Name),
		ReportDir:    reportDir,
		ReportName:   ctx.String(flags.ReportName.Name),
		Title:        title,
		TemplatePath: templatePath,
		OpenReport:   ctx.Bool(flags.Open.Name),
		RawEvents:    rawEvents,
		Serve:        ctx.Bool(flags.Serve.Name),
		ServeAddr:    ctx.String(flags.ServeAddr.Name),
		ServePort:    ctx.Int(flags.ServePort.Name),
		Metrics:      metricsCfg,
		Log:          log,
	}, nil
}

// ReplaysInput reports whether results come from a captured stream rather than a go test run
func (c *Config) ReplaysInput() bool {
	return c.Input != ""
}
