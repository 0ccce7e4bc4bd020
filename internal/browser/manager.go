// Package browser drives Chrome for live picking: process lifecycle
// (local launch, remote connect, Xvfb for headful sessions, recycling),
// tabs with stealth and resource blocking, and the injected page bridge.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Mode selects how a page is acquired.
type Mode int

const (
	ModeHTTP     Mode = 0 // no browser, plain HTTP fetch
	ModeHeadless Mode = 1 // headless Chrome with stealth
	ModeHeadful  Mode = 2 // visible Chrome, on Xvfb when no display is set
)

func (m Mode) String() string {
	switch m {
	case ModeHTTP:
		return "http"
	case ModeHeadless:
		return "headless"
	case ModeHeadful:
		return "headful"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a config name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http":
		return ModeHTTP, nil
	case "", "headless":
		return ModeHeadless, nil
	case "headful":
		return ModeHeadful, nil
	}
	return 0, fmt.Errorf("browser: unknown mode %q", s)
}

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local Chrome.
	RemoteURL string

	// Bin is the Chrome binary. Empty lets the launcher find or fetch one.
	Bin string

	Mode Mode

	// XvfbDisplay is used for headful mode when UseXvfb is set. Default ":99".
	XvfbDisplay string
	UseXvfb     bool

	// ResourceBlocking lists resource types to block (images, fonts, media,
	// stylesheets).
	ResourceBlocking []string

	// NavTimeout bounds navigation and load. Default: 30s.
	NavTimeout time.Duration

	// MemoryLimit in bytes recycles Chrome when exceeded. Default: 1GB.
	MemoryLimit int64

	// RecycleInterval is the maximum lifetime of a Chrome process.
	// Default: 4h.
	RecycleInterval time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.MemoryLimit <= 0 {
		c.MemoryLimit = 1 << 30
	}
	if c.RecycleInterval <= 0 {
		c.RecycleInterval = 4 * time.Hour
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns one Chrome process (or remote connection).
type Manager struct {
	cfg        Config
	mu         sync.RWMutex
	browser    *rod.Browser
	lnch       *launcher.Launcher
	xvfb       *exec.Cmd
	startAt    time.Time
	closed     bool
	onRelaunch []func(*rod.Browser)
}

// NewManager creates a Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// OnRelaunch registers fn to run after Chrome is recycled. Open tabs do
// not survive a recycle.
func (m *Manager) OnRelaunch(fn func(*rod.Browser)) {
	m.mu.Lock()
	m.onRelaunch = append(m.onRelaunch, fn)
	m.mu.Unlock()
}

// Start launches or connects to Chrome and starts the recycle monitor,
// which stops with ctx.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return m.browser, nil
	}

	b, err := m.launch()
	if err != nil {
		return nil, err
	}
	m.browser = b
	m.startAt = time.Now()
	go m.monitorLoop(ctx)
	return b, nil
}

// Browser returns the current handle, or nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Recycle restarts Chrome.
func (m *Manager) Recycle() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}

	m.cfg.Logger.Info("browser: recycling", "uptime", time.Since(m.startAt))
	m.cleanup()
	b, err := m.launch()
	if err != nil {
		return fmt.Errorf("browser: relaunch: %w", err)
	}
	m.browser = b
	m.startAt = time.Now()
	for _, fn := range m.onRelaunch {
		fn(b)
	}
	return nil
}

// Close shuts down Chrome and Xvfb.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cleanup()
	return nil
}

func (m *Manager) launch() (*rod.Browser, error) {
	log := m.cfg.Logger
	if m.cfg.Mode == ModeHTTP {
		return nil, fmt.Errorf("browser: mode %s needs no browser", m.cfg.Mode)
	}

	wsURL := m.cfg.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New()
		if m.cfg.Bin != "" {
			l = l.Bin(m.cfg.Bin)
		}
		if m.cfg.Mode == ModeHeadful {
			l = l.Headless(false)
			if m.cfg.UseXvfb {
				if err := m.startXvfb(); err != nil {
					return nil, fmt.Errorf("browser: xvfb: %w", err)
				}
				l = l.Env("DISPLAY=" + m.cfg.XvfbDisplay)
			}
		} else {
			l = l.Headless(true)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "mode", m.cfg.Mode)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	return b, nil
}

func (m *Manager) cleanup() {
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.cfg.Logger.Debug("browser: close", "error", err)
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
}

func (m *Manager) monitorLoop(ctx context.Context) {
	log := m.cfg.Logger
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			if m.closed || m.browser == nil {
				m.mu.RUnlock()
				return
			}
			b, startAt := m.browser, m.startAt
			m.mu.RUnlock()

			if time.Since(startAt) > m.cfg.RecycleInterval {
				log.Info("browser: recycle interval reached")
				if err := m.Recycle(); err != nil {
					log.Error("browser: recycle failed", "error", err)
				}
				continue
			}

			used, err := jsHeapUsage(b)
			if err != nil {
				log.Debug("browser: heap check failed", "error", err)
				continue
			}
			if used > m.cfg.MemoryLimit {
				log.Info("browser: memory limit exceeded", "used", used, "limit", m.cfg.MemoryLimit)
				if err := m.Recycle(); err != nil {
					log.Error("browser: recycle failed", "error", err)
				}
			}
		}
	}
}

// jsHeapUsage sums the JS heap of every open page.
func jsHeapUsage(b *rod.Browser) (int64, error) {
	pages, err := b.Pages()
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		return 0, fmt.Errorf("no pages for heap check")
	}
	var total int64
	for _, p := range pages {
		res, err := p.Eval(`() => performance.memory ? performance.memory.usedJSHeapSize : 0`)
		if err != nil {
			continue
		}
		total += int64(res.Value.Int())
	}
	return total, nil
}
