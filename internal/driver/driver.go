// Package driver implements processor.CommandProcessor on top of a Chrome
// instance controlled through go-rod.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/shotrec/shotrec/internal/processor"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned by commands issued before Start.
	ErrNotStarted = errors.New("browser session not started")
	// ErrUnknownCommand is returned for commands the driver does not implement.
	ErrUnknownCommand = errors.New("unknown command")
)

// Config holds browser configuration.
type Config struct {
	// DebuggerURL connects to an already running Chrome instead of launching one.
	DebuggerURL string
	// Bin is the Chrome binary to launch. Empty lets the launcher pick one.
	Bin               string
	Headless          bool
	NavigationTimeout time.Duration
	// BaseURL resolves relative URLs given to "open".
	BaseURL string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		NavigationTimeout: 30 * time.Second,
	}
}

// timeout returns the per-command timeout.
func (c Config) timeout() time.Duration {
	if c.NavigationTimeout <= 0 {
		return 30 * time.Second
	}
	return c.NavigationTimeout
}

// Processor drives a single browser page. Commands are serialized.
type Processor struct {
	cfg Config
	log *zap.Logger

	mu          sync.Mutex
	launch      *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	controlURL  string
	extensionJS string
}

// New creates a processor. Nothing is launched until Start.
func New(cfg Config, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{cfg: cfg, log: log}
}

// Start connects to Chrome, or launches it, and opens a page. A non-empty
// options string is the URL to open first.
func (p *Processor) Start(ctx context.Context, options string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser != nil {
		return nil
	}

	controlURL := p.cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(p.cfg.Headless)
		if p.cfg.Bin != "" {
			l = l.Bin(p.cfg.Bin)
		}
		url, err := l.Launch()
		if err != nil {
			return fmt.Errorf("failed to launch chrome: %w", err)
		}
		p.launch = l
		controlURL = url
		p.log.Debug("Launched browser", zap.String("control_url", controlURL))
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		p.killLauncher()
		return fmt.Errorf("failed to connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		p.killLauncher()
		return fmt.Errorf("failed to open page: %w", err)
	}
	if p.extensionJS != "" {
		if _, err := page.EvalOnNewDocument(p.extensionJS); err != nil {
			_ = browser.Close()
			p.killLauncher()
			return fmt.Errorf("failed to install extension script: %w", err)
		}
	}

	if options != "" {
		pg := page.Context(ctx).Timeout(p.cfg.timeout())
		_, err := p.open(pg, []string{options})
		pg.CancelTimeout()
		if err != nil {
			_ = browser.Close()
			p.killLauncher()
			return fmt.Errorf("failed to open start page: %w", err)
		}
	}

	p.browser = browser
	p.page = page
	p.controlURL = controlURL
	return nil
}

// Stop closes the browser. Stopping a stopped processor is a no-op.
func (p *Processor) Stop(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.killLauncher()
	p.browser = nil
	p.page = nil
	p.controlURL = ""
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

func (p *Processor) killLauncher() {
	if p.launch != nil {
		p.launch.Kill()
		p.launch = nil
	}
}

// RemoteControlServerLocation returns the DevTools control URL, or "" when
// not started.
func (p *Processor) RemoteControlServerLocation() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controlURL
}

// SetExtensionJS sets a script evaluated in every new document from the next
// Start on.
func (p *Processor) SetExtensionJS(js string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extensionJS = js
}

// CheckCommand reports whether command is known and nargs satisfies its
// arity, without touching a browser.
func CheckCommand(command string, nargs int) error {
	h, ok := handlers[command]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	if nargs < h.minArgs {
		return fmt.Errorf("%s: expected at least %d argument(s), got %d", command, h.minArgs, nargs)
	}
	return nil
}

// Execute runs a single command against the current page.
func (p *Processor) Execute(ctx context.Context, command string, args []string) (string, error) {
	if err := CheckCommand(command, len(args)); err != nil {
		return "", err
	}
	h := handlers[command]

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page == nil {
		return "", ErrNotStarted
	}

	page := p.page.Context(ctx).Timeout(p.cfg.timeout())
	defer page.CancelTimeout()

	p.log.Debug("Executing command", zap.String("command", command), zap.Strings("args", args))
	out, err := h.run(p, page, args)
	if err != nil {
		return "", fmt.Errorf("%s: %w", command, err)
	}
	return out, nil
}

// GetString returns the command result.
func (p *Processor) GetString(ctx context.Context, command string, args []string) (string, error) {
	return p.Execute(ctx, command, args)
}

// GetStringArray splits the command result into its elements.
func (p *Processor) GetStringArray(ctx context.Context, command string, args []string) ([]string, error) {
	out, err := p.Execute(ctx, command, args)
	if err != nil {
		return nil, err
	}
	return processor.SplitArray(out), nil
}

// GetBoolean parses the command result as a boolean.
func (p *Processor) GetBoolean(ctx context.Context, command string, args []string) (bool, error) {
	out, err := p.Execute(ctx, command, args)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(out)
	if err != nil {
		return false, fmt.Errorf("%s: result %q is not a boolean", command, out)
	}
	return b, nil
}

// GetBooleanArray parses the command result as booleans.
func (p *Processor) GetBooleanArray(ctx context.Context, command string, args []string) ([]bool, error) {
	items, err := p.GetStringArray(ctx, command, args)
	if err != nil {
		return nil, err
	}
	res := make([]bool, 0, len(items))
	for _, item := range items {
		b, err := strconv.ParseBool(item)
		if err != nil {
			return nil, fmt.Errorf("%s: element %q is not a boolean", command, item)
		}
		res = append(res, b)
	}
	return res, nil
}

// GetNumber parses the command result as a number.
func (p *Processor) GetNumber(ctx context.Context, command string, args []string) (float64, error) {
	out, err := p.Execute(ctx, command, args)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: result %q is not a number", command, out)
	}
	return n, nil
}

// GetNumberArray parses the command result as numbers.
func (p *Processor) GetNumberArray(ctx context.Context, command string, args []string) ([]float64, error) {
	items, err := p.GetStringArray(ctx, command, args)
	if err != nil {
		return nil, err
	}
	res := make([]float64, 0, len(items))
	for _, item := range items {
		n, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: element %q is not a number", command, item)
		}
		res = append(res, n)
	}
	return res, nil
}

// Verify compile-time interface compliance.
var _ processor.CommandProcessor = (*Processor)(nil)
