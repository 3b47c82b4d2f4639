package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolateEnv clears every variable the commands read so the host
// environment cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		ConfigEnvVar, "SHOTREC_DIR", "SHOTREC_MAX_FILENAME_LENGTH", "SHOTREC_HEADLESS",
		"SHOTREC_DEBUGGER_URL", "SHOTREC_CHROME_BIN", "SHOTREC_LOG_LEVEL",
		"SHOTREC_LOG_FORMAT", "SHOTREC_TRACE", "SHOTREC_COLOR",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("SHOTREC_LOG_LEVEL", "error")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func scriptYAML(name string, steps string) string {
	return "meta:\n  name: " + name + "\n  start: http://app.test/\nsteps:\n" + steps
}

const loginSteps = `  - command: open
    args: ["/login"]
  - command: type
    args: ["name=user", "alice"]
  - command: click
    args: ["id=submit"]
`
