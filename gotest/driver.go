package gotest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-reporter/recorder"
)

// Recorder receives the lifecycle calls derived from the event stream
type Recorder interface {
	StartAt(id string, start time.Time)
	Attach(id string, data any)
	CompleteAt(id string, c recorder.Completion, end time.Time)
}

var _ Recorder = (*recorder.Recorder)(nil)

// DriverStats counts what an EventDriver has seen
type DriverStats struct {
	Events    int
	Malformed int
	Completed int
	Failed    int
}

// EventDriver translates test2json events into recorder lifecycle calls.
// Every test (and subtest) becomes its own record, identified by Identity.
// A failing package that no failed test accounts for (build failure, TestMain
// panic, timeout) becomes a record identified by PackageIdentity.
type EventDriver struct {
	log   log.Logger
	rec   Recorder
	clock func() time.Time

	mu      sync.Mutex
	outputs map[string]*strings.Builder
	stats   DriverStats

	running      map[string]string // test id -> package
	failedTests  map[string]int    // package -> failed test records
	pkgStarts    map[string]time.Time
	pkgOutputs   map[string]*strings.Builder
	buildOutputs map[string]*strings.Builder // import path -> compiler output
}

// NewEventDriver creates a new event driver
func NewEventDriver(logger log.Logger, rec Recorder) (*EventDriver, error) {
	if rec == nil {
		return nil, errors.New("recorder is required")
	}
	if logger == nil {
		logger = log.Root()
	}
	return &EventDriver{
		log:     logger,
		rec:     rec,
		clock:   time.Now,
		outputs:      make(map[string]*strings.Builder),
		running:      make(map[string]string),
		failedTests:  make(map[string]int),
		pkgStarts:    make(map[string]time.Time),
		pkgOutputs:   make(map[string]*strings.Builder),
		buildOutputs: make(map[string]*strings.Builder),
	}, nil
}

// Consume reads newline-delimited test2json events from r until EOF.
// Lines that are not valid events are skipped.
func (d *EventDriver) Consume(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		event, err := parseTestEvent(line)
		if err != nil {
			d.mu.Lock()
			d.stats.Malformed++
			d.mu.Unlock()
			d.log.Debug("Skipping malformed event line", "line", string(line), "error", err)
			continue
		}
		d.Handle(event)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read test events: %w", err)
	}

	stats := d.Stats()
	d.log.Debug("Finished consuming test events",
		"events", stats.Events,
		"completed", stats.Completed,
		"malformed", stats.Malformed)
	return nil
}

// Handle applies a single event
func (d *EventDriver) Handle(event TestEvent) {
	d.mu.Lock()
	d.stats.Events++
	d.mu.Unlock()

	at := event.Time
	if at.IsZero() {
		at = d.clock()
	}

	switch {
	case event.Action == ActionBuildOutput || event.Action == ActionBuildFail:
		d.handleBuildEvent(event)
		return
	case event.Test == "":
		d.handlePackageEvent(event, at)
		return
	}

	id := Identity(event.Package, event.Test)
	switch event.Action {
	case ActionRun:
		d.mu.Lock()
		d.running[id] = event.Package
		d.mu.Unlock()
		d.rec.StartAt(id, at)
	case ActionOutput:
		d.handleOutput(id, event.Output)
	case ActionPass, ActionSkip:
		d.takeOutput(id)
		d.complete(event.Package, id, recorder.Passed(), at)
	case ActionFail:
		detail := d.takeOutput(id)
		if detail == "" {
			detail = DefaultFailureDetail
		}
		d.complete(event.Package, id, recorder.Failed(detail), at)
	}
}

func (d *EventDriver) handleBuildEvent(event TestEvent) {
	if event.Action == ActionBuildFail {
		d.log.Debug("Build failed", "import_path", event.ImportPath)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	appendOutput(d.buildOutputs, event.ImportPath, event.Output)
}

func (d *EventDriver) handlePackageEvent(event TestEvent, at time.Time) {
	switch event.Action {
	case ActionStart:
		d.mu.Lock()
		d.pkgStarts[event.Package] = at
		d.mu.Unlock()
	case ActionOutput:
		if isPackageSummaryLine(event.Output) {
			return
		}
		d.mu.Lock()
		appendOutput(d.pkgOutputs, event.Package, event.Output)
		d.mu.Unlock()
	case ActionFail:
		d.failPackage(event, at)
		d.forgetPackage(event.Package)
	case ActionPass, ActionSkip:
		d.forgetPackage(event.Package)
	}
}

// failPackage fails the tests of pkg that never finished and, if no failed
// test explains the package failure, records the package itself as failed
func (d *EventDriver) failPackage(event TestEvent, at time.Time) {
	pkg := event.Package

	d.mu.Lock()
	var unfinished []string
	for id, p := range d.running {
		if p == pkg {
			unfinished = append(unfinished, id)
		}
	}
	d.mu.Unlock()
	sort.Strings(unfinished)

	for _, id := range unfinished {
		detail := d.takeOutput(id)
		if detail == "" {
			detail = IncompleteTestDetail
		}
		d.complete(pkg, id, recorder.Failed(detail), at)
	}

	d.mu.Lock()
	explained := d.failedTests[pkg] > 0
	start, started := d.pkgStarts[pkg]
	detail := d.packageFailureDetail(event)
	d.mu.Unlock()
	if explained {
		return
	}

	id := PackageIdentity(pkg)
	if !started {
		start = at
	}
	d.log.Warn("Package failed without a failing test", "package", pkg, "failed_build", event.FailedBuild)
	d.rec.StartAt(id, start)
	d.complete(pkg, id, recorder.Failed(detail), at)
}

// packageFailureDetail must be called with d.mu held
func (d *EventDriver) packageFailureDetail(event TestEvent) string {
	if event.FailedBuild != "" {
		detail := "build failed: " + event.FailedBuild
		if out, ok := d.buildOutputs[event.FailedBuild]; ok {
			if text := strings.TrimSpace(out.String()); text != "" {
				detail = "build failed:\n" + text
			}
		}
		return detail
	}
	if out, ok := d.pkgOutputs[event.Package]; ok {
		if text := strings.TrimSpace(out.String()); text != "" {
			return text
		}
	}
	return PackageFailureDetail
}

func (d *EventDriver) forgetPackage(pkg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pkgStarts, pkg)
	delete(d.pkgOutputs, pkg)
	delete(d.failedTests, pkg)
}

// Stats returns the counters collected so far
func (d *EventDriver) Stats() DriverStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *EventDriver) complete(pkg, id string, c recorder.Completion, at time.Time) {
	d.rec.CompleteAt(id, c, at)
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.running, id)
	d.stats.Completed++
	if c.Failed {
		d.stats.Failed++
		d.failedTests[pkg]++
	}
}

func (d *EventDriver) handleOutput(id, output string) {
	if data, ok := extractPayload(output); ok {
		d.rec.Attach(id, data)
		return
	}
	if isFramingLine(output) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	appendOutput(d.outputs, id, output)
}

func appendOutput(outputs map[string]*strings.Builder, key, output string) {
	buf, ok := outputs[key]
	if !ok {
		buf = &strings.Builder{}
		outputs[key] = buf
	}
	buf.WriteString(output)
}

// takeOutput returns and forgets the output collected for a test
func (d *EventDriver) takeOutput(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.outputs[id]
	if !ok {
		return ""
	}
	delete(d.outputs, id)
	return strings.TrimSpace(buf.String())
}
