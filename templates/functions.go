package templates

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// GetTemplateFunc returns the functions available to report templates.
// The built-in layout uses a subset of them; formatDuration and lower are
// provided for layouts supplied with --template.
func GetTemplateFunc() template.FuncMap {
	return template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return types.FormatDuration(d)
		},
		"formatTime": func(t time.Time) string {
			return t.Format(types.TimestampLayout)
		},
		"getStatusClass": func(status types.TestStatus) string {
			return getStatusString(status)
		},
		"getStatusText": func(status types.TestStatus) string {
			return getStatusString(status)
		},
		"formatPassRate": func(rate float64) string {
			return fmt.Sprintf("%.1f%%", rate)
		},
		"lower": strings.ToLower,
	}
}

// getStatusString returns a consistent uppercase status string
func getStatusString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPassed:
		return "PASSED"
	case types.TestStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
