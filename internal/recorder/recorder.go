// Package recorder captures browser screenshots into a per-test directory
// and packages or deletes them once the test is over.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/shotrec/shotrec/internal/processor"
	"go.uber.org/zap"
)

// DefaultMaxFileNameLength is the default maximum length of a screenshot file
// name, excluding the extension.
const DefaultMaxFileNameLength = 250

// ErrInvalidMaxLength is returned by New when the maximum file name length is
// not positive.
var ErrInvalidMaxLength = errors.New("max file name length must be positive")

// Recorder owns the screenshot directory of one test.
type Recorder struct {
	dir               string
	maxFileNameLength int
	captureCommand    string
	log               *zap.Logger

	mu          sync.Mutex
	screenshots []string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMaxFileNameLength sets the maximum file name length, extension excluded.
func WithMaxFileNameLength(n int) Option {
	return func(r *Recorder) { r.maxFileNameLength = n }
}

// WithCaptureCommand sets the command issued to take a screenshot.
func WithCaptureCommand(command string) Option {
	return func(r *Recorder) { r.captureCommand = command }
}

// WithLogger sets the logger used for capture warnings.
func WithLogger(log *zap.Logger) Option {
	return func(r *Recorder) { r.log = log }
}

// New creates a recorder writing to baseDir/testName. The test name is used
// as-is. The directory is created by the first screenshot, not here.
func New(baseDir, testName string, opts ...Option) (*Recorder, error) {
	dir, err := filepath.Abs(filepath.Join(baseDir, testName))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve screenshot directory: %w", err)
	}
	r := &Recorder{
		dir:               dir,
		maxFileNameLength: DefaultMaxFileNameLength,
		captureCommand:    processor.CaptureEntirePageScreenshot,
		log:               zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxFileNameLength <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxLength, r.maxFileNameLength)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r, nil
}

// Dir returns the absolute screenshot directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// ArchivePath returns where PackageRecordedScreenshots writes its archive.
func (r *Recorder) ArchivePath() string {
	return r.dir + ArchiveExt
}

// Screenshots returns the paths recorded successfully by this recorder, in
// the order they were taken.
func (r *Recorder) Screenshots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.screenshots...)
}

// RecordScreenshot captures a screenshot through p and returns its path.
// label becomes part of the file name after the sequence number and may be
// truncated. A failed capture is logged and returned.
func (r *Recorder) RecordScreenshot(ctx context.Context, p processor.CommandProcessor, label string) (string, error) {
	path, err := r.generateScreenshotPath(label)
	if err != nil {
		return "", err
	}

	if _, err := p.Execute(ctx, r.captureCommand, []string{path, ""}); err != nil {
		r.log.Warn("Unable to take screenshot",
			zap.String("path", path),
			zap.String("command", r.captureCommand),
			zap.Error(err))
		return "", fmt.Errorf("failed to capture screenshot %s: %w", path, err)
	}

	r.mu.Lock()
	r.screenshots = append(r.screenshots, path)
	r.mu.Unlock()

	return path, nil
}
