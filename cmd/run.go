package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shotrec/shotrec/internal/config"
	"github.com/shotrec/shotrec/internal/logging"
	"github.com/shotrec/shotrec/internal/processor"
	"github.com/shotrec/shotrec/internal/runner"
	"github.com/shotrec/shotrec/internal/script"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runConfigFlag      string
	runDirFlag         string
	runMaxLengthFlag   int
	runParallelFlag    int
	runFormatFlag      string
	runOnSuccessFlag   string
	runOnFailureFlag   string
	runHeadlessFlag    bool
	runDebuggerURLFlag string
)

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>...",
	Short: "Run scripts and record a screenshot after every command",
	Long: `Run one or more step scripts against Chrome.

Every script gets its own browser page and its own screenshot directory
<dir>/<meta.name>/. After each successful command a full-page screenshot
is written there. When the script finishes, its screenshots are kept,
packaged into <dir>/<meta.name>.zip or deleted, depending on
--on-success and --on-failure.

Settings are read from the defaults, then the --config file (or
SHOTREC_CONFIG), then SHOTREC_* environment variables, then flags.
Set SHOTREC_TRACE=1 to print every executed step to stderr.

Exit code 0 if every script passed, 1 otherwise.

Formats:
  text   Human-readable summary (default)
  json   Structured JSON
  junit  JUnit XML, one test suite per script

Examples:
  shotrec run login.yaml
  shotrec run --parallel 4 --format junit scripts/*.yaml > report.xml
  shotrec run --debugger-url ws://127.0.0.1:9222/devtools/browser/abc login.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() { //nolint:gochecknoinits // Standard cobra pattern
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&runConfigFlag, "config", "", "Path to a shotrec config file")
	f.StringVar(&runDirFlag, "dir", "", "Base directory for screenshots")
	f.IntVar(&runMaxLengthFlag, "max-length", 0, "Maximum screenshot file name length, excluding .png")
	f.IntVar(&runParallelFlag, "parallel", 1, "Number of scripts to run at once (0 = unbounded)")
	f.StringVar(&runFormatFlag, "format", "text", "Output format: text, json, junit")
	f.StringVar(&runOnSuccessFlag, "on-success", "", "What to do with screenshots of passing scripts: keep, package, delete")
	f.StringVar(&runOnFailureFlag, "on-failure", "", "What to do with screenshots of failing scripts: keep, package, delete")
	f.BoolVar(&runHeadlessFlag, "headless", true, "Run Chrome without a window")
	f.StringVar(&runDebuggerURLFlag, "debugger-url", "", "Connect to a running Chrome instead of launching one")
}

func runRun(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(runFormatFlag)
	switch format {
	case "text", "json", "junit":
	default:
		return fmt.Errorf("invalid format %q: valid values are text, json, junit", runFormatFlag)
	}

	cfg, err := loadConfig(runConfigFlag)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	scripts := make([]*script.Script, 0, len(args))
	for _, path := range args {
		sc, err := script.LoadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		scripts = append(scripts, sc)
	}

	// Both already checked by cfg.Validate.
	onSuccess, _ := runner.ParseDisposition(cfg.Screenshots.OnSuccess)
	onFailure, _ := runner.ParseDisposition(cfg.Screenshots.OnFailure)

	var trace io.Writer
	if runner.IsTraceEnabled(os.Getenv(runner.TraceEnvVar)) {
		trace = cmd.ErrOrStderr()
	}

	r := runner.New(runner.Options{
		BaseDir:           cfg.Screenshots.Dir,
		MaxFileNameLength: cfg.Screenshots.MaxFileNameLength,
		CaptureCommand:    cfg.Screenshots.CaptureCommand,
		ReservedCommands:  cfg.Screenshots.ReservedCommands,
		OnSuccess:         onSuccess,
		OnFailure:         onFailure,
		Logger:            log,
		Trace:             trace,
	})

	log.Debug("Running scripts",
		zap.Int("count", len(scripts)),
		zap.Int("parallel", runParallelFlag),
		zap.String("dir", cfg.Screenshots.Dir))

	results, err := r.RunAll(cmd.Context(), scripts, func() processor.CommandProcessor {
		return newProcessor(cfg.Browser, log)
	}, runParallelFlag)
	if err != nil {
		return err
	}

	if err := writeRunReport(cmd.OutOrStdout(), format, results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if rep := runner.NewReport(results); !rep.Passed {
		return fmt.Errorf("%d of %d scripts failed", rep.Failed, rep.Total)
	}
	return nil
}

// applyRunFlags overrides cfg with every flag the user set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("dir") {
		cfg.Screenshots.Dir = filepath.Clean(runDirFlag)
	}
	if f.Changed("max-length") {
		cfg.Screenshots.MaxFileNameLength = runMaxLengthFlag
	}
	if f.Changed("on-success") {
		cfg.Screenshots.OnSuccess = strings.ToLower(runOnSuccessFlag)
	}
	if f.Changed("on-failure") {
		cfg.Screenshots.OnFailure = strings.ToLower(runOnFailureFlag)
	}
	if f.Changed("headless") {
		cfg.Browser.Headless = runHeadlessFlag
	}
	if f.Changed("debugger-url") {
		cfg.Browser.DebuggerURL = runDebuggerURLFlag
	}
}

func writeRunReport(w io.Writer, format string, results []*runner.Result) error {
	switch format {
	case "json":
		return runner.FormatJSON(w, results)
	case "junit":
		return runner.FormatJUnit(w, results)
	default:
		return runner.FormatText(w, results)
	}
}
