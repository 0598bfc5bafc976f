package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_REPORTER"

// StdinInput selects stdin as the source of a captured event stream
const StdinInput = "-"

var (
	TestDir = &cli.StringFlag{
		Name:    "testdir",
		Value:   ".",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TESTDIR"),
		Usage:   "Path to the Go module whose tests are run",
	}
	Packages = &cli.StringSliceFlag{
		Name:    "packages",
		Value:   cli.NewStringSlice("./..."),
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PACKAGES"),
		Usage:   "Packages to test, relative to the test directory",
	}
	Run = &cli.StringFlag{
		Name:    "run",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN"),
		Usage:   "Only run tests matching this regular expression (passed to 'go test -run')",
	}
	Input = &cli.StringFlag{
		Name:    "input",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "INPUT"),
		Usage:   "Read a captured 'go test -json' stream from this file ('-' for stdin) instead of running tests",
	}
	GoBinary = &cli.StringFlag{
		Name:    "go-binary",
		Value:   "go",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GO_BINARY"),
		Usage:   "Path to the Go binary to use for running tests",
	}
	ReportDir = &cli.StringFlag{
		Name:    "report-dir",
		Value:   "reports",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_DIR"),
		Usage:   "Directory the report artifact is written to",
	}
	ReportName = &cli.StringFlag{
		Name:    "report-name",
		Value:   "report",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_NAME"),
		Usage:   "Base name of the report artifact; a number is appended when the name is taken",
	}
	Title = &cli.StringFlag{
		Name:    "title",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TITLE"),
		Usage:   "Report title (defaults to the module path of the test directory)",
	}
	Template = &cli.StringFlag{
		Name:    "template",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEMPLATE"),
		Usage:   "Path to an html/template file replacing the built-in report layout",
	}
	Open = &cli.BoolFlag{
		Name:    "open",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OPEN"),
		Usage:   "Open the report in the default browser once it is written",
	}
	RawEvents = &cli.StringFlag{
		Name:    "raw-events",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RAW_EVENTS"),
		Usage:   "Also write the unmodified 'go test -json' stream to this file",
	}
	Serve = &cli.BoolFlag{
		Name:    "serve",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVE"),
		Usage:   "Keep running after the report is written and serve healthz and the reports directory",
	}
	ServeAddr = &cli.StringFlag{
		Name:    "serve.addr",
		Value:   "0.0.0.0",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVE_ADDR"),
		Usage:   "Listen address of the healthz and reports server",
	}
	ServePort = &cli.IntFlag{
		Name:    "serve.port",
		Value:   8080,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVE_PORT"),
		Usage:   "Listen port of the healthz and reports server",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	TestDir,
	Packages,
	Run,
	Input,
	GoBinary,
	ReportDir,
	ReportName,
	Title,
	Template,
	Open,
	RawEvents,
	Serve,
	ServeAddr,
	ServePort,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return opflags.CheckRequiredXor(ctx)
}
