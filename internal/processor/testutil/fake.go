// Package testutil provides test helpers for the processor package.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/shotrec/shotrec/internal/processor"
)

// pngSignature prefixes every fake screenshot so files look like PNGs.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// FakeProcessor is a configurable test double implementing
// processor.CommandProcessor. Test authors set the function fields to control
// behavior per test case. It is safe for concurrent use.
type FakeProcessor struct {
	// ExecuteFunc overrides Execute. If nil, capture commands write a fake PNG
	// to args[0] and every other command returns "OK".
	ExecuteFunc func(ctx context.Context, command string, args []string) (string, error)

	// StartFunc overrides Start. If nil, Start succeeds.
	StartFunc func(ctx context.Context, options string) error

	// StopFunc overrides Stop. If nil, Stop succeeds.
	StopFunc func(ctx context.Context) error

	// LocationValue is returned by RemoteControlServerLocation.
	LocationValue string

	mu          sync.Mutex
	calls       []Call
	extensionJS string
}

// Call records a single method invocation on FakeProcessor.
type Call struct {
	Method string
	Args   []string
}

// NewFakeProcessor returns a FakeProcessor with sensible defaults.
func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{LocationValue: "fake://localhost"}
}

// FakePNG returns the bytes the default Execute writes for a capture of path.
func FakePNG(path string) []byte {
	return append(append([]byte{}, pngSignature...), path...)
}

func (f *FakeProcessor) record(method string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, Args: append([]string(nil), args...)})
}

// Execute dispatches to ExecuteFunc or the default behavior.
func (f *FakeProcessor) Execute(ctx context.Context, command string, args []string) (string, error) {
	f.record("Execute", append([]string{command}, args...)...)
	if f.ExecuteFunc != nil {
		return f.ExecuteFunc(ctx, command, args)
	}
	switch command {
	case processor.CaptureEntirePageScreenshot, processor.CaptureScreenshot:
		if len(args) == 0 {
			return "", fmt.Errorf("%s: missing path argument", command)
		}
		if err := os.WriteFile(args[0], FakePNG(args[0]), 0600); err != nil {
			return "", err
		}
		return "OK", nil
	}
	return "OK", nil
}

// GetBoolean parses the Execute result as a boolean.
func (f *FakeProcessor) GetBoolean(ctx context.Context, command string, args []string) (bool, error) {
	f.record("GetBoolean", append([]string{command}, args...)...)
	out, err := f.execQuiet(ctx, command, args)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(out)
}

// GetBooleanArray parses the Execute result as a boolean array.
func (f *FakeProcessor) GetBooleanArray(ctx context.Context, command string, args []string) ([]bool, error) {
	f.record("GetBooleanArray", append([]string{command}, args...)...)
	out, err := f.execQuiet(ctx, command, args)
	if err != nil {
		return nil, err
	}
	var res []bool
	for _, item := range processor.SplitArray(out) {
		b, err := strconv.ParseBool(item)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, nil
}

// GetNumber parses the Execute result as a number.
func (f *FakeProcessor) GetNumber(ctx context.Context, command string, args []string) (float64, error) {
	f.record("GetNumber", append([]string{command}, args...)...)
	out, err := f.execQuiet(ctx, command, args)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(out, 64)
}

// GetNumberArray parses the Execute result as a number array.
func (f *FakeProcessor) GetNumberArray(ctx context.Context, command string, args []string) ([]float64, error) {
	f.record("GetNumberArray", append([]string{command}, args...)...)
	out, err := f.execQuiet(ctx, command, args)
	if err != nil {
		return nil, err
	}
	var res []float64
	for _, item := range processor.SplitArray(out) {
		n, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, nil
}

// GetString returns the Execute result.
func (f *FakeProcessor) GetString(ctx context.Context, command string, args []string) (string, error) {
	f.record("GetString", append([]string{command}, args...)...)
	return f.execQuiet(ctx, command, args)
}

// GetStringArray splits the Execute result.
func (f *FakeProcessor) GetStringArray(ctx context.Context, command string, args []string) ([]string, error) {
	f.record("GetStringArray", append([]string{command}, args...)...)
	out, err := f.execQuiet(ctx, command, args)
	if err != nil {
		return nil, err
	}
	return processor.SplitArray(out), nil
}

// execQuiet runs the Execute logic without recording an extra Execute call.
func (f *FakeProcessor) execQuiet(ctx context.Context, command string, args []string) (string, error) {
	if f.ExecuteFunc != nil {
		return f.ExecuteFunc(ctx, command, args)
	}
	return "", fmt.Errorf("no canned result for %s", command)
}

// RemoteControlServerLocation returns LocationValue.
func (f *FakeProcessor) RemoteControlServerLocation() string {
	f.record("RemoteControlServerLocation")
	return f.LocationValue
}

// SetExtensionJS stores js for later inspection.
func (f *FakeProcessor) SetExtensionJS(js string) {
	f.record("SetExtensionJS", js)
	f.mu.Lock()
	f.extensionJS = js
	f.mu.Unlock()
}

// ExtensionJS returns the last script passed to SetExtensionJS.
func (f *FakeProcessor) ExtensionJS() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extensionJS
}

// Start delegates to StartFunc.
func (f *FakeProcessor) Start(ctx context.Context, options string) error {
	f.record("Start", options)
	if f.StartFunc != nil {
		return f.StartFunc(ctx, options)
	}
	return nil
}

// Stop delegates to StopFunc.
func (f *FakeProcessor) Stop(ctx context.Context) error {
	f.record("Stop")
	if f.StopFunc != nil {
		return f.StopFunc(ctx)
	}
	return nil
}

// Calls returns a copy of all recorded invocations.
func (f *FakeProcessor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns the number of times a method was called.
func (f *FakeProcessor) CallCount(method string) int {
	count := 0
	for _, c := range f.Calls() {
		if c.Method == method {
			count++
		}
	}
	return count
}

// ExecutedCommands returns the command names passed to Execute, in order.
func (f *FakeProcessor) ExecutedCommands() []string {
	var cmds []string
	for _, c := range f.Calls() {
		if c.Method == "Execute" {
			cmds = append(cmds, c.Args[0])
		}
	}
	return cmds
}

// CalledWith returns true if the method was called with the given args (substring match).
func (f *FakeProcessor) CalledWith(method string, args ...string) bool {
	for _, c := range f.Calls() {
		if c.Method != method {
			continue
		}
		if len(args) > len(c.Args) {
			continue
		}
		match := true
		for i, a := range args {
			if !strings.Contains(c.Args[i], a) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Verify compile-time interface compliance.
var _ processor.CommandProcessor = (*FakeProcessor)(nil)
