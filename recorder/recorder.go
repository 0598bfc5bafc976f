package recorder

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/payload"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// Phase identifies which part of a test invocation completed
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseCall     Phase = "call"
	PhaseTeardown Phase = "teardown"
)

// Completion describes how a phase of a test ended
type Completion struct {
	Phase  Phase
	Failed bool
	Detail string // failure description, ignored for passing tests
}

// Passed returns a successful call-phase completion
func Passed() Completion {
	return Completion{Phase: PhaseCall}
}

// Failed returns a failed call-phase completion with the given description
func Failed(detail string) Completion {
	return Completion{Phase: PhaseCall, Failed: true, Detail: detail}
}

// PayloadSource gives access to the diagnostic data a test attached to its own invocation
type PayloadSource interface {
	AttachedPayload(id string) (any, bool)
}

var _ PayloadSource = (*Recorder)(nil)

// Config holds the dependencies of a Recorder
type Config struct {
	Collection *Collection
	Log        log.Logger
	RunID      string

	// Clock returns the current time, defaults to time.Now
	Clock func() time.Time
	// NameFunc maps a test identity to the name shown in reports, defaults to the identity
	NameFunc func(id string) string
	// PayloadSource overrides where attached payloads are read from, defaults to the recorder
	PayloadSource PayloadSource
}

// Recorder observes test lifecycle events and appends exactly one record per
// completed call phase to its collection. It never fails the test it observes:
// missing data falls back to defaults.
type Recorder struct {
	collection *Collection
	log        log.Logger
	runID      string
	clock      func() time.Time
	nameFunc   func(id string) string
	payloads   PayloadSource

	mu         sync.Mutex
	startTimes map[string]time.Time
	attached   map[string]any
}

// New creates a new Recorder
func New(cfg Config) (*Recorder, error) {
	if cfg.Collection == nil {
		return nil, errors.New("collection is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NameFunc == nil {
		cfg.NameFunc = func(id string) string { return id }
	}

	r := &Recorder{
		collection: cfg.Collection,
		log:        cfg.Log,
		runID:      cfg.RunID,
		clock:      cfg.Clock,
		nameFunc:   cfg.NameFunc,
		payloads:   cfg.PayloadSource,
		startTimes: make(map[string]time.Time),
		attached:   make(map[string]any),
	}
	if r.payloads == nil {
		r.payloads = r
	}
	return r, nil
}

// OnTestStart captures the start time of a test invocation
func (r *Recorder) OnTestStart(id string) {
	r.StartAt(id, r.clock())
}

// StartAt captures an explicit start time for a test invocation
func (r *Recorder) StartAt(id string, start time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startTimes[id] = start
}

// Attach stores diagnostic data for a test invocation. A later call replaces earlier data.
func (r *Recorder) Attach(id string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attached[id] = data
}

// AttachedPayload returns the data attached to a test invocation
func (r *Recorder) AttachedPayload(id string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.attached[id]
	return data, ok
}

// OnTestComplete records the outcome of a test invocation using the current time
func (r *Recorder) OnTestComplete(id string, c Completion) {
	r.CompleteAt(id, c, r.clock())
}

// CompleteAt records the outcome of a test invocation that ended at the given time.
// Only call-phase completions produce a record.
func (r *Recorder) CompleteAt(id string, c Completion, end time.Time) {
	if c.Phase != PhaseCall {
		r.log.Debug("Ignoring non-call phase completion", "test", id, "phase", c.Phase)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Failed to record test result", "test", id, "panic", rec)
			metrics.RecordError("record_panic")
		}
	}()

	record := types.ResultRecord{
		TestName: r.nameFunc(id),
		Duration: r.duration(id, end),
		Payload:  r.payload(id),
	}
	if c.Failed {
		record.Status = types.TestStatusFailed
		record.Message = types.FailureMessage(cleanDetail(c.Detail))
	} else {
		record.Status = types.TestStatusPassed
		record.Message = types.SuccessMessage
	}

	r.collection.Append(record)
	metrics.RecordTest(r.runID, record.Status, record.Duration)

	r.log.Debug("Recorded test result",
		"test", record.TestName,
		"status", record.Status,
		"duration", record.FormattedDuration())
}

// Pending returns the number of started tests that have not completed yet
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.startTimes)
}

func (r *Recorder) duration(id string, end time.Time) time.Duration {
	r.mu.Lock()
	start, ok := r.startTimes[id]
	delete(r.startTimes, id)
	r.mu.Unlock()

	if !ok {
		r.log.Warn("No start time recorded for test, using zero duration", "test", id)
		return 0
	}
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

func (r *Recorder) payload(id string) (text string) {
	defer func() {
		r.mu.Lock()
		delete(r.attached, id)
		r.mu.Unlock()
	}()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("Failed to retrieve attached payload", "test", id, "panic", rec)
			text = types.UnavailablePayload
		}
	}()

	data, ok := r.payloads.AttachedPayload(id)
	if !ok {
		return types.NoDataPayload
	}
	return payload.Normalize(data)
}

func cleanDetail(detail string) string {
	return strings.TrimSpace(stripansi.Strip(detail))
}
