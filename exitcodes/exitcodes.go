// Package exitcodes lists the process exit codes of op-reporter.
//
// The code reflects what the written report says, not whether go test itself
// exited cleanly: a run whose report records a failed test (including a package
// that did not build) exits with TestFailure, and a run that produced no
// trustworthy report exits with RuntimeErr.
package exitcodes

const (
	Success     = 0 // report written, every record PASSED (or serving until interrupted)
	TestFailure = 1 // report written with at least one FAILED record
	RuntimeErr  = 2 // invalid configuration, unreadable events, broken go test run or report write failure
)
