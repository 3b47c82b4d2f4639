// Package processor defines the command-processing capability that browser
// drivers implement and that the interceptor and recorder consume.
package processor

import (
	"context"
	"strings"
)

// Reserved screenshot commands. Executing either of these never triggers a
// recording side effect.
const (
	CaptureEntirePageScreenshot = "captureEntirePageScreenshot"
	CaptureScreenshot           = "captureScreenshot"
)

// ReservedCommands returns the default set of commands that must not trigger
// a screenshot recording.
func ReservedCommands() []string {
	return []string{CaptureEntirePageScreenshot, CaptureScreenshot}
}

// CommandProcessor sends named commands with string arguments to a browser
// automation driver.
type CommandProcessor interface {
	// Execute dispatches a command and returns its raw string result.
	Execute(ctx context.Context, command string, args []string) (string, error)

	GetBoolean(ctx context.Context, command string, args []string) (bool, error)
	GetBooleanArray(ctx context.Context, command string, args []string) ([]bool, error)
	GetNumber(ctx context.Context, command string, args []string) (float64, error)
	GetNumberArray(ctx context.Context, command string, args []string) ([]float64, error)
	GetString(ctx context.Context, command string, args []string) (string, error)
	GetStringArray(ctx context.Context, command string, args []string) ([]string, error)

	// RemoteControlServerLocation describes where the driver is connected.
	RemoteControlServerLocation() string

	// SetExtensionJS installs a script evaluated in every new document.
	// It takes effect on the next Start.
	SetExtensionJS(js string)

	// Start opens a browser session. The meaning of options is driver specific.
	Start(ctx context.Context, options string) error
	Stop(ctx context.Context) error
}

// FormatArgs renders args as "[a, b, c]".
func FormatArgs(args []string) string {
	return "[" + strings.Join(args, ", ") + "]"
}

// Label returns the screenshot label for a command: the command name, a
// dash, and the rendered argument list.
func Label(command string, args []string) string {
	return command + "-" + FormatArgs(args)
}

// SplitArray parses a comma-separated array result. A backslash escapes the
// following character, so `\,` is a literal comma and `\\` a backslash.
// An empty string yields an empty slice.
func SplitArray(s string) []string {
	if s == "" {
		return []string{}
	}
	var (
		out     []string
		cur     strings.Builder
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	return append(out, cur.String())
}

// JoinArray is the inverse of SplitArray.
func JoinArray(items []string) string {
	escaped := make([]string, len(items))
	for i, item := range items {
		item = strings.ReplaceAll(item, `\`, `\\`)
		escaped[i] = strings.ReplaceAll(item, ",", `\,`)
	}
	return strings.Join(escaped, ",")
}
