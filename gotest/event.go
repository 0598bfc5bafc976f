package gotest

import (
	"encoding/json"
	"strings"
	"time"
)

// TestEvent represents a single event from the go test JSON output
type TestEvent struct {
	Time    time.Time // Time the event occurred
	Action  string    // The action taken (run, pause, cont, pass, fail, skip, output)
	Package string    // The package being tested
	Test    string    // The test function name (may be empty for package events)
	Output  string    // Output text (may be empty)
	Elapsed float64   // Elapsed time in seconds for the specific action

	ImportPath  string // Set on build-output and build-fail events
	FailedBuild string // Import path of the build that made a package fail
}

func parseTestEvent(line []byte) (TestEvent, error) {
	var event TestEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return event, err
	}
	return event, nil
}

// Identity returns the key a test invocation is recorded under
func Identity(pkg, test string) string {
	return pkg + "::" + test
}

// PackageIdentity returns the key of a package-level failure record
func PackageIdentity(pkg string) string {
	return Identity(pkg, PackageTestName)
}

// DisplayName returns the test name part of an identity created by Identity.
// Package failure records keep their package path.
func DisplayName(id string) string {
	idx := strings.LastIndex(id, "::")
	if idx == -1 {
		return id
	}
	name := id[idx+2:]
	if name == PackageTestName {
		return id[:idx] + " " + name
	}
	return name
}

var framingPrefixes = []string{
	"=== RUN",
	"=== PAUSE",
	"=== CONT",
	"=== NAME",
	"--- PASS",
	"--- FAIL",
	"--- SKIP",
}

// isFramingLine reports whether an output line is emitted by the test framework itself
func isFramingLine(output string) bool {
	trimmed := strings.TrimSpace(output)
	for _, prefix := range framingPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

var packageSummaryPrefixes = []string{
	"FAIL\t",
	"ok  \t",
	"?   \t",
}

// isPackageSummaryLine reports whether a package-level output line is the
// PASS/FAIL trailer go test prints for every package
func isPackageSummaryLine(output string) bool {
	trimmed := strings.TrimSpace(output)
	if trimmed == "PASS" || trimmed == "FAIL" {
		return true
	}
	for _, prefix := range packageSummaryPrefixes {
		if strings.HasPrefix(output, prefix) {
			return true
		}
	}
	return false
}

// extractPayload returns the JSON document following PayloadMarker in an output line.
// The marker may be preceded by the file:line prefix added by t.Log.
func extractPayload(output string) (json.RawMessage, bool) {
	idx := strings.Index(output, PayloadMarker)
	if idx == -1 {
		return nil, false
	}
	raw := strings.TrimSpace(output[idx+len(PayloadMarker):])
	return json.RawMessage(raw), true
}
