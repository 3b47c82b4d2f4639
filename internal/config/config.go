// Package config loads shotrec settings from a YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shotrec/shotrec/internal/processor"
	"github.com/shotrec/shotrec/internal/recorder"
	"gopkg.in/yaml.v3"
)

// Config is the full shotrec configuration.
type Config struct {
	Screenshots Screenshots `yaml:"screenshots"`
	Browser     Browser     `yaml:"browser"`
	Logging     Logging     `yaml:"logging"`
}

// Screenshots controls where and how screenshots are recorded.
type Screenshots struct {
	Dir               string   `yaml:"dir"`
	MaxFileNameLength int      `yaml:"max_filename_length"`
	CaptureCommand    string   `yaml:"capture_command"`
	ReservedCommands  []string `yaml:"reserved_commands"`
	OnSuccess         string   `yaml:"on_success"`
	OnFailure         string   `yaml:"on_failure"`
}

// Browser configures the go-rod driver.
type Browser struct {
	DebuggerURL       string        `yaml:"debugger_url"`
	Bin               string        `yaml:"bin"`
	Headless          bool          `yaml:"headless"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	BaseURL           string        `yaml:"base_url"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Dispositions accepted by on_success and on_failure.
var dispositions = []string{"keep", "package", "delete"}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Screenshots: Screenshots{
			Dir:               "screenshots",
			MaxFileNameLength: recorder.DefaultMaxFileNameLength,
			CaptureCommand:    processor.CaptureEntirePageScreenshot,
			ReservedCommands:  processor.ReservedCommands(),
			OnSuccess:         "delete",
			OnFailure:         "package",
		},
		Browser: Browser{
			Headless:          true,
			NavigationTimeout: 30 * time.Second,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML file at path on top of the defaults. Unknown fields
// are rejected. An empty file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path comes from the user
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from SHOTREC_* environment variables.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SHOTREC_DIR"); ok && v != "" {
		c.Screenshots.Dir = v
	}
	if v, ok := lookup("SHOTREC_MAX_FILENAME_LENGTH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHOTREC_MAX_FILENAME_LENGTH: %w", err)
		}
		c.Screenshots.MaxFileNameLength = n
	}
	if v, ok := lookup("SHOTREC_HEADLESS"); ok && v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			c.Browser.Headless = true
		case "0", "false", "no", "off":
			c.Browser.Headless = false
		default:
			return fmt.Errorf("SHOTREC_HEADLESS: invalid value %q", v)
		}
	}
	if v, ok := lookup("SHOTREC_DEBUGGER_URL"); ok {
		c.Browser.DebuggerURL = v
	}
	if v, ok := lookup("SHOTREC_CHROME_BIN"); ok {
		c.Browser.Bin = v
	}
	if v, ok := lookup("SHOTREC_LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup("SHOTREC_LOG_FORMAT"); ok && v != "" {
		c.Logging.Format = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	s := c.Screenshots
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("screenshots.dir must be non-empty")
	}
	if s.MaxFileNameLength <= 0 {
		return fmt.Errorf("screenshots.max_filename_length must be positive, got %d", s.MaxFileNameLength)
	}
	if s.CaptureCommand == "" {
		return errors.New("screenshots.capture_command must be non-empty")
	}
	if !contains(s.ReservedCommands, s.CaptureCommand) {
		return fmt.Errorf("screenshots.reserved_commands must include capture command %q", s.CaptureCommand)
	}
	if !contains(dispositions, s.OnSuccess) {
		return fmt.Errorf("screenshots.on_success: invalid value %q (valid: %s)", s.OnSuccess, strings.Join(dispositions, ", "))
	}
	if !contains(dispositions, s.OnFailure) {
		return fmt.Errorf("screenshots.on_failure: invalid value %q (valid: %s)", s.OnFailure, strings.Join(dispositions, ", "))
	}
	if c.Browser.NavigationTimeout < 0 {
		return errors.New("browser.navigation_timeout must not be negative")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
