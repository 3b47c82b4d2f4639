package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// ScreenshotExt is appended to every generated screenshot name. It does not
// count against the maximum file name length.
const ScreenshotExt = ".png"

// Placeholders substituted for path separators in screenshot labels.
const (
	slashToken     = "<slash>"
	backslashToken = "<backslash>"
)

// screenshotCounter is shared by every Recorder in the process. Its value
// makes each generated file name unique regardless of label collisions.
var screenshotCounter atomic.Uint64

// nextSequence returns the next screenshot sequence number, starting at 1.
func nextSequence() uint64 {
	return screenshotCounter.Add(1)
}

// baseFileName builds the file name for sequence n and label, without the
// extension. Separators are replaced before truncation, so a truncated name
// may end in a partial placeholder.
func baseFileName(n uint64, label string, maxLen int) string {
	name := fmt.Sprintf("%d-%s", n, label)
	name = strings.ReplaceAll(name, "/", slashToken)
	name = strings.ReplaceAll(name, `\`, backslashToken)
	return truncateName(name, maxLen)
}

// truncateName cuts s to at most n bytes, backing up to a character
// boundary so a multi-byte character is never split.
func truncateName(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// generateScreenshotPath reserves the next sequence number and returns the
// absolute path for a screenshot of label, creating the screenshot
// directory on first use.
func (r *Recorder) generateScreenshotPath(label string) (string, error) {
	name := baseFileName(nextSequence(), label, r.maxFileNameLength) + ScreenshotExt
	if err := os.MkdirAll(r.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	return filepath.Join(r.dir, name), nil
}
