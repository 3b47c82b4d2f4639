// Package runner executes step scripts through a recording interceptor and
// disposes of the screenshots each script produced.
package runner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shotrec/shotrec/internal/interceptor"
	"github.com/shotrec/shotrec/internal/processor"
	"github.com/shotrec/shotrec/internal/recorder"
	"github.com/shotrec/shotrec/internal/script"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Disposition says what happens to a script's screenshots after it ran.
type Disposition string

// Dispositions.
const (
	Keep    Disposition = "keep"
	Package Disposition = "package"
	Delete  Disposition = "delete"
)

// ParseDisposition converts a disposition name.
func ParseDisposition(s string) (Disposition, error) {
	switch d := Disposition(strings.ToLower(s)); d {
	case Keep, Package, Delete:
		return d, nil
	}
	return "", fmt.Errorf("invalid disposition %q: valid values are keep, package, delete", s)
}

// Options configures a Runner.
type Options struct {
	BaseDir           string
	MaxFileNameLength int
	CaptureCommand    string
	ReservedCommands  []string
	OnSuccess         Disposition
	OnFailure         Disposition
	Logger            *zap.Logger
	// Trace receives one line per executed step when non-nil.
	Trace io.Writer
}

// Runner runs scripts.
type Runner struct {
	opts    Options
	log     *zap.Logger
	traceMu sync.Mutex
}

// New creates a Runner. Zero-valued options fall back to the recorder and
// interceptor defaults; dispositions default to keep.
func New(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxFileNameLength == 0 {
		opts.MaxFileNameLength = recorder.DefaultMaxFileNameLength
	}
	if opts.CaptureCommand == "" {
		opts.CaptureCommand = processor.CaptureEntirePageScreenshot
	}
	if len(opts.ReservedCommands) == 0 {
		opts.ReservedCommands = processor.ReservedCommands()
	}
	if opts.OnSuccess == "" {
		opts.OnSuccess = Keep
	}
	if opts.OnFailure == "" {
		opts.OnFailure = Keep
	}
	return &Runner{opts: opts, log: opts.Logger}
}

// Run executes sc against proc with a fresh recorder bound to the context.
// Steps run in order and stop at the first failure. proc is started before
// the first step and stopped afterwards.
func (r *Runner) Run(ctx context.Context, sc *script.Script, proc processor.CommandProcessor) *Result {
	start := time.Now()
	res := &Result{
		RunID:      uuid.NewString(),
		Name:       sc.Meta.Name,
		StartedAt:  start.UTC(),
		TotalSteps: len(sc.Steps),
		Steps:      []StepResult{},
	}
	log := r.log.With(zap.String("test", sc.Meta.Name), zap.String("run_id", res.RunID))

	rec, err := recorder.New(r.opts.BaseDir, sc.Meta.Name,
		recorder.WithMaxFileNameLength(r.opts.MaxFileNameLength),
		recorder.WithCaptureCommand(r.opts.CaptureCommand),
		recorder.WithLogger(log))
	if err != nil {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}
	res.Dir = rec.Dir()

	ic := interceptor.New(proc,
		interceptor.WithReservedCommands(r.opts.ReservedCommands...),
		interceptor.WithLogger(log))
	ctx = recorder.WithRecorder(ctx, rec)

	log.Info("Starting test", zap.Int("steps", len(sc.Steps)))
	if err := ctx.Err(); err != nil {
		res.Error = fmt.Sprintf("not started: %v", err)
	} else if err := ic.Start(ctx, sc.Meta.Start); err != nil {
		res.Error = fmt.Sprintf("failed to start processor: %v", err)
	} else {
		r.runSteps(ctx, ic, rec, sc, res)
		if err := ic.Stop(ctx); err != nil && res.Error == "" {
			res.Error = fmt.Sprintf("failed to stop processor: %v", err)
		}
	}

	res.Passed = res.Error == ""
	res.Screenshots = rec.Screenshots()
	r.dispose(rec, res, log)
	res.Duration = time.Since(start)

	log.Info("Finished test",
		zap.Bool("passed", res.Passed),
		zap.Int("screenshots", len(res.Screenshots)),
		zap.Duration("duration", res.Duration))
	return res
}

func (r *Runner) runSteps(ctx context.Context, ic *interceptor.Interceptor, rec *recorder.Recorder, sc *script.Script, res *Result) {
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			res.Error = fmt.Sprintf("step %d: %v", i, err)
			return
		}

		before := len(rec.Screenshots())
		out, err := ic.Execute(ctx, step.Command, step.Args)
		sr := StepResult{Index: i, Command: step.Command, Args: step.Args, Output: out}
		if shots := rec.Screenshots(); len(shots) > before {
			sr.Screenshot = shots[len(shots)-1]
		}
		if err != nil {
			sr.Error = err.Error()
		}
		res.Steps = append(res.Steps, sr)
		r.trace(sc.Meta.Name, i, step, sr.Screenshot)

		if err != nil {
			res.Error = fmt.Sprintf("step %d (%s): %v", i, step.Command, err)
			return
		}
	}
}

func (r *Runner) trace(test string, i int, step script.Step, screenshot string) {
	if r.opts.Trace == nil {
		return
	}
	r.traceMu.Lock()
	defer r.traceMu.Unlock()
	WriteTraceOutput(r.opts.Trace, test, i, step.Command, step.Args, screenshot)
}

// dispose packages or deletes the recorded screenshots according to the
// result.
func (r *Runner) dispose(rec *recorder.Recorder, res *Result, log *zap.Logger) {
	d := r.opts.OnSuccess
	if !res.Passed {
		d = r.opts.OnFailure
	}
	res.Disposition = d

	switch d {
	case Package:
		archive, err := rec.PackageRecordedScreenshots()
		if err != nil {
			res.DisposalError = err.Error()
			log.Error("Failed to package screenshots", zap.Error(err))
			return
		}
		res.Archive = archive
	case Delete:
		gone, err := rec.DeleteRecordedScreenshots()
		if err != nil {
			res.DisposalError = err.Error()
			log.Error("Failed to delete screenshots", zap.Error(err))
			return
		}
		res.Deleted = gone
	}
}

// ProcessorFactory returns a fresh processor for one script.
type ProcessorFactory func() processor.CommandProcessor

// RunAll runs every script with its own processor and recorder, at most
// parallel at a time (unbounded when parallel <= 0). Results are returned in
// input order. Script names must be unique since they name the screenshot
// directories.
func (r *Runner) RunAll(ctx context.Context, scripts []*script.Script, factory ProcessorFactory, parallel int) ([]*Result, error) {
	seen := make(map[string]struct{}, len(scripts))
	for _, sc := range scripts {
		if _, dup := seen[sc.Meta.Name]; dup {
			return nil, fmt.Errorf("duplicate script name %q", sc.Meta.Name)
		}
		seen[sc.Meta.Name] = struct{}{}
	}

	results := make([]*Result, len(scripts))
	var g errgroup.Group
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, sc := range scripts {
		i, sc := i, sc
		g.Go(func() error {
			results[i] = r.Run(ctx, sc, factory())
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}
