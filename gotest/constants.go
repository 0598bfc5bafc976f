package gotest

// Test execution constants
const (
	// Default go binary name
	DefaultGoBinary = "go"

	// Test command arguments
	TestCommand = "test"
	JSONFlag    = "-json"
	VerboseFlag = "-v"
	CountFlag   = "-count"
	RunFlag     = "-run"

	// Test count to disable caching
	DisableCacheCount = "1"

	// Directory patterns
	AllPackagesPattern = "./..."

	// PayloadMarker prefixes test output lines that carry a JSON payload
	PayloadMarker = "REPORT_PAYLOAD: "

	// DefaultFailureDetail is used when a failing test produced no output
	DefaultFailureDetail = "test failed"
	// IncompleteTestDetail is used for tests still running when their package failed
	IncompleteTestDetail = "test did not complete before its package failed"
	// PackageFailureDetail is used when a failing package produced no output
	PackageFailureDetail = "package failed"

	// PackageTestName names the record of a package failure no test accounts for
	PackageTestName = "[package]"

	// maxEventLineBytes bounds a single line of the event stream
	maxEventLineBytes = 10 * 1024 * 1024
)

// Actions emitted by test2json
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPause  = "pause"
	ActionCont   = "cont"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
	ActionBench  = "bench"

	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)
