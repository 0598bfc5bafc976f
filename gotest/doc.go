// Package gotest drives a result recorder from the event stream produced by
// go test -json.
//
// The main components are:
//   - EventDriver: Translates test2json events into recorder lifecycle calls
//   - Executor: Runs go test -json and pipes its output into an EventDriver
//
// Tests attach a diagnostic payload to their own result by printing a line
// that starts with PayloadMarker followed by a JSON document.
package gotest
