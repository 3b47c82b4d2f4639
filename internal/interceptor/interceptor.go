// Package interceptor wraps a command processor so that every command is
// followed by a screenshot taken by the recorder active in the caller's
// context.
package interceptor

import (
	"context"
	"fmt"

	"github.com/shotrec/shotrec/internal/processor"
	"github.com/shotrec/shotrec/internal/recorder"
	"go.uber.org/zap"
)

// Interceptor is a processor.CommandProcessor that forwards every operation
// to the wrapped processor and records a screenshot after each executed
// command.
type Interceptor struct {
	inner    processor.CommandProcessor
	reserved map[string]struct{}
	log      *zap.Logger
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithReservedCommands replaces the set of commands that never trigger a
// recording. It must contain the capture commands the recorder issues.
func WithReservedCommands(names ...string) Option {
	return func(i *Interceptor) {
		i.reserved = make(map[string]struct{}, len(names))
		for _, n := range names {
			i.reserved[n] = struct{}{}
		}
	}
}

// WithLogger sets the logger used for recording failures.
func WithLogger(log *zap.Logger) Option {
	return func(i *Interceptor) { i.log = log }
}

// New wraps inner.
func New(inner processor.CommandProcessor, opts ...Option) *Interceptor {
	i := &Interceptor{inner: inner, log: zap.NewNop()}
	WithReservedCommands(processor.ReservedCommands()...)(i)
	for _, opt := range opts {
		opt(i)
	}
	if i.log == nil {
		i.log = zap.NewNop()
	}
	return i
}

// Unwrap returns the wrapped processor.
func (i *Interceptor) Unwrap() processor.CommandProcessor {
	return i.inner
}

// Execute forwards the command and, if it succeeds, asks the recorder in ctx
// to take a screenshot labeled with the command and its arguments.
//
// A failing command is returned as-is and nothing is recorded. If the
// screenshot fails, the command's result is returned together with the
// recording error.
func (i *Interceptor) Execute(ctx context.Context, command string, args []string) (string, error) {
	result, err := i.inner.Execute(ctx, command, args)
	if err != nil {
		return result, err
	}

	if _, ok := i.reserved[command]; ok {
		return result, nil
	}
	rec, ok := recorder.FromContext(ctx)
	if !ok {
		return result, nil
	}

	label := processor.Label(command, args)
	if _, err := rec.RecordScreenshot(ctx, i.inner, label); err != nil {
		i.log.Warn("Screenshot recording failed",
			zap.String("command", command),
			zap.String("label", label),
			zap.String("dir", rec.Dir()),
			zap.Error(err))
		return result, fmt.Errorf("failed to record %s: %w", command, err)
	}
	return result, nil
}

// GetBoolean forwards to the wrapped processor.
func (i *Interceptor) GetBoolean(ctx context.Context, command string, args []string) (bool, error) {
	return i.inner.GetBoolean(ctx, command, args)
}

// GetBooleanArray forwards to the wrapped processor.
func (i *Interceptor) GetBooleanArray(ctx context.Context, command string, args []string) ([]bool, error) {
	return i.inner.GetBooleanArray(ctx, command, args)
}

// GetNumber forwards to the wrapped processor.
func (i *Interceptor) GetNumber(ctx context.Context, command string, args []string) (float64, error) {
	return i.inner.GetNumber(ctx, command, args)
}

// GetNumberArray forwards to the wrapped processor.
func (i *Interceptor) GetNumberArray(ctx context.Context, command string, args []string) ([]float64, error) {
	return i.inner.GetNumberArray(ctx, command, args)
}

// GetString forwards to the wrapped processor.
func (i *Interceptor) GetString(ctx context.Context, command string, args []string) (string, error) {
	return i.inner.GetString(ctx, command, args)
}

// GetStringArray forwards to the wrapped processor.
func (i *Interceptor) GetStringArray(ctx context.Context, command string, args []string) ([]string, error) {
	return i.inner.GetStringArray(ctx, command, args)
}

// RemoteControlServerLocation forwards to the wrapped processor.
func (i *Interceptor) RemoteControlServerLocation() string {
	return i.inner.RemoteControlServerLocation()
}

// SetExtensionJS forwards to the wrapped processor.
func (i *Interceptor) SetExtensionJS(js string) {
	i.inner.SetExtensionJS(js)
}

// Start forwards to the wrapped processor.
func (i *Interceptor) Start(ctx context.Context, options string) error {
	return i.inner.Start(ctx, options)
}

// Stop forwards to the wrapped processor.
func (i *Interceptor) Stop(ctx context.Context) error {
	return i.inner.Stop(ctx)
}

// Verify compile-time interface compliance.
var _ processor.CommandProcessor = (*Interceptor)(nil)
