package cmd

import (
	"fmt"
	"os"

	"github.com/shotrec/shotrec/internal/config"
	"github.com/shotrec/shotrec/internal/driver"
	"github.com/shotrec/shotrec/internal/processor"
	"go.uber.org/zap"
)

// ConfigEnvVar names a config file used when --config is not given.
const ConfigEnvVar = "SHOTREC_CONFIG"

// loadConfig layers the file at path (or $SHOTREC_CONFIG) and the SHOTREC_*
// environment over the defaults. Flags are applied by the caller.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

// newProcessor builds the browser-backed processor for one script. Tests
// replace it with a fake.
var newProcessor = func(b config.Browser, log *zap.Logger) processor.CommandProcessor {
	return driver.New(driver.Config{
		DebuggerURL:       b.DebuggerURL,
		Bin:               b.Bin,
		Headless:          b.Headless,
		NavigationTimeout: b.NavigationTimeout,
		BaseURL:           b.BaseURL,
	}, log)
}
