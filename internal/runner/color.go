package runner

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ColorEnvVar forces ANSI colour on or off in text reports.
const ColorEnvVar = "SHOTREC_COLOR"

type colorMode int

const (
	colorOff colorMode = iota
	colorOn
)

// resolveColor decides whether f should receive ANSI colour codes.
// Priority: SHOTREC_COLOR env > NO_COLOR env > TTY detection on f.
func resolveColor(lookup func(string) (string, bool), f *os.File) colorMode {
	if v, ok := lookup(ColorEnvVar); ok && v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return colorOn
		case "0", "false", "no", "off":
			return colorOff
		}
	}
	if _, ok := lookup("NO_COLOR"); ok {
		return colorOff
	}
	if f != nil && term.IsTerminal(int(f.Fd())) {
		return colorOn
	}
	return colorOff
}

func paint(code, s string, c colorMode) string {
	if c == colorOn {
		return "\033[" + code + "m" + s + "\033[0m"
	}
	return s
}

func red(s string, c colorMode) string   { return paint("31", s, c) }
func green(s string, c colorMode) string { return paint("32", s, c) }
func bold(s string, c colorMode) string  { return paint("1", s, c) }
