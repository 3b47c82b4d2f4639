package interceptor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shotrec/shotrec/internal/processor"
	"github.com/shotrec/shotrec/internal/processor/testutil"
	"github.com/shotrec/shotrec/internal/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRecorderCtx(t *testing.T, testName string) (context.Context, *recorder.Recorder) {
	t.Helper()
	rec, err := recorder.New(t.TempDir(), testName)
	require.NoError(t, err)
	return recorder.WithRecorder(context.Background(), rec), rec
}

func TestExecute_NoRecorderIsPassthrough(t *testing.T) {
	fake := testutil.NewFakeProcessor()
	fake.ExecuteFunc = func(_ context.Context, command string, args []string) (string, error) {
		return command + ":" + strings.Join(args, "|"), nil
	}
	ic := New(fake)

	want, err := fake.Execute(context.Background(), "click", []string{"id=submit"})
	require.NoError(t, err)
	got, err := ic.Execute(context.Background(), "click", []string{"id=submit"})
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, []string{"click", "click"}, fake.ExecutedCommands(), "no capture command issued")
}

func TestExecute_RecordsAfterCommand(t *testing.T) {
	fake := testutil.NewFakeProcessor()
	ic := New(fake)
	ctx, rec := newRecorderCtx(t, "records")

	got, err := ic.Execute(ctx, "click", []string{"id=submit"})
	require.NoError(t, err)
	assert.Equal(t, "OK", got)

	assert.Equal(t, []string{"click", processor.CaptureEntirePageScreenshot}, fake.ExecutedCommands())
	shots := rec.Screenshots()
	require.Len(t, shots, 1)
	assert.True(t, strings.HasSuffix(filepath.Base(shots[0]), "-click-[id=submit].png"), shots[0])
	assert.FileExists(t, shots[0])
}

func TestExecute_ReservedCommandsNeverRecord(t *testing.T) {
	for _, command := range processor.ReservedCommands() {
		t.Run(command, func(t *testing.T) {
			fake := testutil.NewFakeProcessor()
			ic := New(fake)
			ctx, rec := newRecorderCtx(t, "reserved")
			target := filepath.Join(t.TempDir(), "manual.png")

			_, err := ic.Execute(ctx, command, []string{target, ""})
			require.NoError(t, err)

			assert.Equal(t, []string{command}, fake.ExecutedCommands())
			assert.Empty(t, rec.Screenshots())
			assert.NoDirExists(t, rec.Dir())
		})
	}
}

func TestExecute_CustomReservedCommands(t *testing.T) {
	fake := testutil.NewFakeProcessor()
	ic := New(fake, WithReservedCommands(processor.CaptureEntirePageScreenshot, "getTitle"))
	ctx, rec := newRecorderCtx(t, "custom")

	_, err := ic.Execute(ctx, "getTitle", nil)
	require.NoError(t, err)
	assert.Empty(t, rec.Screenshots())

	_, err = ic.Execute(ctx, "open", []string{"/"})
	require.NoError(t, err)
	assert.Len(t, rec.Screenshots(), 1)
}

func TestExecute_CommandFailureSkipsRecording(t *testing.T) {
	cmdErr := errors.New("element not found")
	fake := testutil.NewFakeProcessor()
	fake.ExecuteFunc = func(_ context.Context, command string, _ []string) (string, error) {
		if command == "click" {
			return "", cmdErr
		}
		return "OK", nil
	}
	ic := New(fake)
	ctx, rec := newRecorderCtx(t, "cmd-failure")

	_, err := ic.Execute(ctx, "click", []string{"id=missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmdErr))
	assert.Equal(t, []string{"click"}, fake.ExecutedCommands())
	assert.NoDirExists(t, rec.Dir())
}

func TestExecute_RecordingFailureLoggedAndReturned(t *testing.T) {
	captureErr := errors.New("capture unsupported")
	fake := testutil.NewFakeProcessor()
	fake.ExecuteFunc = func(_ context.Context, command string, _ []string) (string, error) {
		if command == processor.CaptureEntirePageScreenshot {
			return "", captureErr
		}
		return "done", nil
	}
	core, logs := observer.New(zapcore.WarnLevel)
	ic := New(fake, WithLogger(zap.New(core)))
	ctx, _ := newRecorderCtx(t, "capture-failure")

	got, err := ic.Execute(ctx, "open", []string{"/home"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, captureErr))
	assert.Equal(t, "done", got, "command result is preserved")

	entries := logs.FilterMessage("Screenshot recording failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "open", fields["command"])
	assert.Equal(t, "open-[/home]", fields["label"])
}

func TestPassthroughs(t *testing.T) {
	fake := testutil.NewFakeProcessor()
	fake.ExecuteFunc = func(_ context.Context, command string, _ []string) (string, error) {
		switch command {
		case "isVisible":
			return "true", nil
		case "getFlags":
			return "true,false", nil
		case "getCount":
			return "42", nil
		case "getSizes":
			return "1,2.5", nil
		case "getNames":
			return `a,b\,c`, nil
		}
		return "title", nil
	}
	fake.LocationValue = "ws://127.0.0.1:9222"
	ic := New(fake)
	ctx, rec := newRecorderCtx(t, "passthrough")

	b, err := ic.GetBoolean(ctx, "isVisible", []string{"id=x"})
	require.NoError(t, err)
	assert.True(t, b)

	bs, err := ic.GetBooleanArray(ctx, "getFlags", nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, bs)

	n, err := ic.GetNumber(ctx, "getCount", nil)
	require.NoError(t, err)
	assert.Equal(t, 42.0, n)

	ns, err := ic.GetNumberArray(ctx, "getSizes", nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5}, ns)

	s, err := ic.GetString(ctx, "getTitle", nil)
	require.NoError(t, err)
	assert.Equal(t, "title", s)

	ss, err := ic.GetStringArray(ctx, "getNames", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b,c"}, ss)

	assert.Equal(t, "ws://127.0.0.1:9222", ic.RemoteControlServerLocation())

	ic.SetExtensionJS("window.x = 1")
	assert.Equal(t, "window.x = 1", fake.ExtensionJS())

	require.NoError(t, ic.Start(ctx, "https://example.test"))
	require.NoError(t, ic.Stop(ctx))
	assert.True(t, fake.CalledWith("Start", "https://example.test"))
	assert.Equal(t, 1, fake.CallCount("Stop"))

	assert.Empty(t, rec.Screenshots(), "only Execute records")
	assert.Same(t, fake, ic.Unwrap())
}

func TestExecute_ParallelRecordersAreIsolated(t *testing.T) {
	fake := testutil.NewFakeProcessor()
	ic := New(fake)
	base := t.TempDir()

	const workers, steps = 4, 10
	recs := make([]*recorder.Recorder, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		rec, err := recorder.New(base, "worker-"+string(rune('a'+w)))
		require.NoError(t, err)
		recs[w] = rec

		wg.Add(1)
		go func(ctx context.Context) {
			defer wg.Done()
			for i := 0; i < steps; i++ {
				_, err := ic.Execute(ctx, "click", []string{"id=btn"})
				assert.NoError(t, err)
			}
		}(recorder.WithRecorder(context.Background(), rec))
	}

	// A goroutine without a recorder records nothing.
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := ic.Execute(context.Background(), "click", []string{"id=btn"})
		assert.NoError(t, err)
	}()
	wg.Wait()

	for _, rec := range recs {
		entries, err := os.ReadDir(rec.Dir())
		require.NoError(t, err)
		assert.Len(t, entries, steps, rec.Dir())
		for _, shot := range rec.Screenshots() {
			assert.Equal(t, rec.Dir(), filepath.Dir(shot))
		}
	}
}
