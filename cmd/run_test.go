package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shotrec/shotrec/internal/config"
	"github.com/shotrec/shotrec/internal/processor"
	"github.com/shotrec/shotrec/internal/processor/testutil"
	"github.com/shotrec/shotrec/internal/runner"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// makeRunRoot creates a fresh root + run command tree for testing.
func makeRunRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "shotrec",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	r := &cobra.Command{
		Use:  "run <script.yaml>...",
		Args: cobra.MinimumNArgs(1),
		RunE: runRun,
	}
	addRunFlags(r)
	root.AddCommand(r)
	return root
}

// fakeBrowser swaps newProcessor for one returning fakes and records the
// browser settings it was given.
type fakeBrowser struct {
	mu      sync.Mutex
	configs []config.Browser
	execute func(ctx context.Context, command string, args []string) (string, error)
}

func installFakeBrowser(t *testing.T) *fakeBrowser {
	t.Helper()
	fb := &fakeBrowser{}
	orig := newProcessor
	newProcessor = func(b config.Browser, _ *zap.Logger) processor.CommandProcessor {
		fb.mu.Lock()
		fb.configs = append(fb.configs, b)
		fb.mu.Unlock()
		p := testutil.NewFakeProcessor()
		if fb.execute != nil {
			p.ExecuteFunc = func(ctx context.Context, command string, args []string) (string, error) {
				out, err := fb.execute(ctx, command, args)
				if err == nil && command == processor.CaptureEntirePageScreenshot {
					return testutil.NewFakeProcessor().Execute(ctx, command, args)
				}
				return out, err
			}
		}
		return p
	}
	t.Cleanup(func() { newProcessor = orig })
	return fb
}

func executeRun(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := makeRunRoot()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"run"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_PassingScriptJSON(t *testing.T) {
	isolateEnv(t)
	installFakeBrowser(t)
	tmp := t.TempDir()
	path := writeFile(t, tmp, "login.yaml", scriptYAML("login_test", loginSteps))
	shots := filepath.Join(tmp, "shots")

	stdout, _, err := executeRun(t, "--dir", shots, "--on-success", "keep", "--format", "json", path)
	require.NoError(t, err)

	var rep runner.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.True(t, rep.Passed)
	require.Len(t, rep.Results, 1)
	res := rep.Results[0]
	assert.Equal(t, "login_test", res.Name)
	assert.Equal(t, filepath.Join(shots, "login_test"), res.Dir)
	require.Len(t, res.Screenshots, 3)
	for _, s := range res.Screenshots {
		assert.FileExists(t, s)
	}
}

func TestRun_DefaultDeletesOnSuccess(t *testing.T) {
	isolateEnv(t)
	installFakeBrowser(t)
	tmp := t.TempDir()
	path := writeFile(t, tmp, "login.yaml", scriptYAML("login_test", loginSteps))
	shots := filepath.Join(tmp, "shots")

	stdout, _, err := executeRun(t, "--dir", shots, path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS login_test (3/3 steps, 3 screenshots")
	assert.Contains(t, stdout, "screenshots deleted")
	assert.NoDirExists(t, filepath.Join(shots, "login_test"))
}

func TestRun_FailingScriptPackagesAndErrors(t *testing.T) {
	isolateEnv(t)
	fb := installFakeBrowser(t)
	fb.execute = func(_ context.Context, command string, _ []string) (string, error) {
		if command == "click" {
			return "", errors.New("element not found")
		}
		return "OK", nil
	}
	tmp := t.TempDir()
	path := writeFile(t, tmp, "login.yaml", scriptYAML("login_test", loginSteps))
	shots := filepath.Join(tmp, "shots")

	stdout, _, err := executeRun(t, "--dir", shots, "--format", "junit", path)
	require.Error(t, err)
	assert.Equal(t, "1 of 1 scripts failed", err.Error())
	assert.Contains(t, stdout, `<testsuite name="login_test"`)
	assert.Contains(t, stdout, "element not found")
	assert.FileExists(t, filepath.Join(shots, "login_test.zip"))
}

func TestRun_ParallelScripts(t *testing.T) {
	isolateEnv(t)
	fb := installFakeBrowser(t)
	tmp := t.TempDir()
	var paths []string
	for _, name := range []string{"a", "b", "c", "d"} {
		paths = append(paths, writeFile(t, tmp, name+".yaml", scriptYAML("test_"+name, loginSteps)))
	}

	args := append([]string{"--dir", filepath.Join(tmp, "shots"), "--parallel", "2", "--on-success", "keep", "--format", "json"}, paths...)
	stdout, _, err := executeRun(t, args...)
	require.NoError(t, err)

	var rep runner.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, 4, rep.Total)
	for _, res := range rep.Results {
		assert.Len(t, res.Screenshots, 3, res.Name)
	}
	assert.Len(t, fb.configs, 4, "one processor per script")
}

func TestRun_ConfigFileAndFlagPrecedence(t *testing.T) {
	isolateEnv(t)
	fb := installFakeBrowser(t)
	tmp := t.TempDir()
	cfgPath := writeFile(t, tmp, "shotrec.yaml", `screenshots:
  dir: `+filepath.Join(tmp, "from-config")+`
  on_success: keep
browser:
  base_url: http://config.test
  headless: true
`)
	path := writeFile(t, tmp, "login.yaml", scriptYAML("login_test", loginSteps))

	_, _, err := executeRun(t, "--config", cfgPath, "--headless=false",
		"--debugger-url", "ws://127.0.0.1:9222/devtools/browser/x", path)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(tmp, "from-config", "login_test"))

	require.Len(t, fb.configs, 1)
	assert.Equal(t, "http://config.test", fb.configs[0].BaseURL)
	assert.False(t, fb.configs[0].Headless)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/x", fb.configs[0].DebuggerURL)

	override := filepath.Join(tmp, "from-flag")
	_, _, err = executeRun(t, "--config", cfgPath, "--dir", override, path)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(override, "login_test"))
}

func TestRun_EnvOverridesConfig(t *testing.T) {
	isolateEnv(t)
	installFakeBrowser(t)
	tmp := t.TempDir()
	envDir := filepath.Join(tmp, "from-env")
	t.Setenv("SHOTREC_DIR", envDir)
	path := writeFile(t, tmp, "login.yaml", scriptYAML("login_test", loginSteps))

	_, _, err := executeRun(t, "--on-success", "keep", path)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(envDir, "login_test"))
}

func TestRun_Trace(t *testing.T) {
	isolateEnv(t)
	installFakeBrowser(t)
	t.Setenv(runner.TraceEnvVar, "1")
	tmp := t.TempDir()
	path := writeFile(t, tmp, "login.yaml", scriptYAML("login_test", loginSteps))

	_, stderr, err := executeRun(t, "--dir", filepath.Join(tmp, "shots"), path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "[shotrec] test=login_test step=0 command=open args=[/login]")
	assert.Contains(t, stderr, "step=2 command=click")
}

func TestRun_Errors(t *testing.T) {
	isolateEnv(t)
	installFakeBrowser(t)
	tmp := t.TempDir()
	good := writeFile(t, tmp, "login.yaml", scriptYAML("login_test", loginSteps))
	dup := writeFile(t, tmp, "dup.yaml", scriptYAML("login_test", loginSteps))
	badCfg := writeFile(t, tmp, "bad.yaml", "screenshots:\n  colour: red\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid format", []string{"--format", "xml", good}, `invalid format "xml"`},
		{"invalid disposition", []string{"--on-failure", "zip", good}, "screenshots.on_failure"},
		{"invalid max length", []string{"--max-length", "0", good}, "max_filename_length must be positive"},
		{"unknown config field", []string{"--config", badCfg, good}, "failed to parse config file"},
		{"missing script", []string{filepath.Join(tmp, "nope.yaml")}, "failed to open script file"},
		{"duplicate names", []string{"--dir", filepath.Join(tmp, "shots"), good, dup}, `duplicate script name "login_test"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeRun(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
