package gotest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CommandBuilder creates the command used to run go test
type CommandBuilder func(ctx context.Context, name string, arg ...string) *exec.Cmd

// ExecutorConfig holds the settings of an Executor
type ExecutorConfig struct {
	TestDir  string
	GoBinary string
	Driver   *EventDriver
	Log      log.Logger
	// RawEvents receives a copy of the unmodified event stream, optional
	RawEvents io.Writer
	// CommandBuilder defaults to exec.CommandContext
	CommandBuilder CommandBuilder
}

// Executor runs go test -json and feeds its output to an EventDriver
type Executor struct {
	testDir    string
	goBinary   string
	driver     *EventDriver
	log        log.Logger
	rawEvents  io.Writer
	cmdBuilder CommandBuilder
	tracer     trace.Tracer
}

// NewExecutor creates a new executor
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.TestDir == "" {
		return nil, fmt.Errorf("testDir cannot be empty")
	}
	if cfg.Driver == nil {
		return nil, fmt.Errorf("driver cannot be nil")
	}
	if cfg.GoBinary == "" {
		cfg.GoBinary = DefaultGoBinary
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.CommandBuilder == nil {
		cfg.CommandBuilder = exec.CommandContext
	}

	return &Executor{
		testDir:    cfg.TestDir,
		goBinary:   cfg.GoBinary,
		driver:     cfg.Driver,
		log:        cfg.Log,
		rawEvents:  cfg.RawEvents,
		cmdBuilder: cfg.CommandBuilder,
		tracer:     otel.Tracer("go test executor"),
	}, nil
}

// Run executes the tests in packages, optionally filtered by runPattern.
// Failing tests are not an error; they are reported through the driver.
func (e *Executor) Run(ctx context.Context, packages []string, runPattern string) error {
	ctx, span := e.tracer.Start(ctx, "go test")
	defer span.End()

	err := e.run(ctx, packages, runPattern)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (e *Executor) run(ctx context.Context, packages []string, runPattern string) error {
	args := e.buildTestArgs(packages, runPattern)
	cmd := e.cmdBuilder(ctx, e.goBinary, args...)
	cmd.Dir = e.testDir

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("dir", e.testDir),
		attribute.String("command", cmd.String()),
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open test output: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.log.Info("Running tests", "dir", e.testDir, "packages", strings.Join(packages, " "), "run", runPattern)
	e.log.Debug("Running test command", "command", cmd.String())

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start go test: %w", err)
	}

	var events io.Reader = stdout
	if e.rawEvents != nil {
		events = io.TeeReader(stdout, e.rawEvents)
	}
	consumeErr := e.driver.Consume(ctx, events)
	if consumeErr != nil {
		// Drain so the process is not blocked on a full pipe
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("test run interrupted: %w", ctxErr)
	}
	if consumeErr != nil {
		return fmt.Errorf("failed to process test events: %w", consumeErr)
	}

	if waitErr != nil {
		exitErr := &exec.ExitError{}
		if errors.As(waitErr, &exitErr) {
			if exitErr.ExitCode() == 1 {
				// Exit code 1 stands for failing tests only if the stream reported one
				if e.driver.Stats().Failed > 0 {
					return nil
				}
				return fmt.Errorf("go test exited with code 1 without reporting a failure: %s", strings.TrimSpace(stderr.String()))
			}
			return fmt.Errorf("go test failed with exit code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("failed to run go test: %w", waitErr)
	}
	return nil
}

func (e *Executor) buildTestArgs(packages []string, runPattern string) []string {
	args := []string{TestCommand, JSONFlag, VerboseFlag, CountFlag, DisableCacheCount}

	if runPattern != "" {
		args = append(args, RunFlag, runPattern)
	}

	if len(packages) == 0 {
		return append(args, AllPackagesPattern)
	}
	return append(args, packages...)
}
