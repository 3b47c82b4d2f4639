package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/shotrec/shotrec/internal/processor"
)

// TraceEnvVar is the environment variable name for enabling trace mode.
const TraceEnvVar = "SHOTREC_TRACE"

// WriteTraceOutput writes one line describing an executed step.
func WriteTraceOutput(w io.Writer, test string, stepIndex int, command string, args []string, screenshot string) {
	if screenshot == "" {
		screenshot = "-"
	}
	_, _ = fmt.Fprintf(w, "[shotrec] test=%s step=%d command=%s args=%s screenshot=%s\n",
		test, stepIndex, command, processor.FormatArgs(args), screenshot)
}

// IsTraceEnabled returns true if trace mode should be enabled.
func IsTraceEnabled(envValue string) bool {
	switch strings.ToLower(envValue) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
