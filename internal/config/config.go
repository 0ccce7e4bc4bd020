// Package config loads copymd configuration: a YAML file with defaults,
// COPYMD_* environment overrides (optionally from a .env file), and the
// user settings persisted in SQLite.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/copymd/internal/browser"
	"github.com/hazyhaar/copymd/toolbar"
)

// Config is the top-level copymd configuration.
type Config struct {
	Browser    BrowserConfig   `yaml:"browser"`
	Theme      ThemeConfig     `yaml:"theme"`
	Labels     toolbar.Labels  `yaml:"labels"`
	Messages   MessagesConfig  `yaml:"messages"`
	Clipboard  ClipboardConfig `yaml:"clipboard"`
	Notify     []SinkConfig    `yaml:"notify"`
	Server     ServerConfig    `yaml:"server"`
	SettingsDB string          `yaml:"settings_db"`
}

// BrowserConfig controls how pages are acquired.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Bin              string        `yaml:"bin"`
	Mode             string        `yaml:"mode"` // http | headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
	UseXvfb          bool          `yaml:"use_xvfb"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavTimeout       time.Duration `yaml:"nav_timeout"`
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
}

// ThemeConfig picks toolbar and highlight colors. Settings stored in the
// settings database take precedence.
type ThemeConfig struct {
	Toolbar        string `yaml:"toolbar"`         // light | dark
	SelectionColor string `yaml:"selection_color"` // classic | elegant | ...
}

// MessagesConfig holds the toast strings.
type MessagesConfig struct {
	Copied           string `yaml:"copied"`
	NoSelection      string `yaml:"no_selection"`
	ConversionFailed string `yaml:"conversion_failed"`
	ClipboardFailed  string `yaml:"clipboard_failed"`
	InitFailed       string `yaml:"init_failed"`
}

// ClipboardConfig selects the clipboard backend.
type ClipboardConfig struct {
	Backend string `yaml:"backend"` // auto | system | page | none
}

// SinkConfig defines a notice sink.
type SinkConfig struct {
	Type    string `yaml:"type"` // stdout | webhook | toast
	URL     string `yaml:"url"`
	Retries int    `yaml:"retries"`
}

// ServerConfig controls `copymd serve`.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	Sanitize *bool  `yaml:"sanitize"`
	MaxBody  int64  `yaml:"max_body"`
	// MaxPages caps concurrently open browser pages.
	MaxPages int `yaml:"max_pages"`
}

// SanitizeEnabled reports whether HTML received over HTTP or MCP is
// sanitized before conversion. Default true.
func (s ServerConfig) SanitizeEnabled() bool {
	return s.Sanitize == nil || *s.Sanitize
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.Mode == "" {
		c.Browser.Mode = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Theme.Toolbar == "" {
		c.Theme.Toolbar = string(toolbar.ThemeLight)
	}
	if c.Theme.SelectionColor == "" {
		c.Theme.SelectionColor = string(toolbar.ColorElegant)
	}
	c.Labels = c.Labels.WithDefaults()
	if c.Messages.Copied == "" {
		c.Messages.Copied = "Copied as Markdown"
	}
	if c.Messages.NoSelection == "" {
		c.Messages.NoSelection = "Nothing selected. Pick an element or select some text first."
	}
	if c.Messages.ConversionFailed == "" {
		c.Messages.ConversionFailed = "Could not convert to Markdown"
	}
	if c.Messages.ClipboardFailed == "" {
		c.Messages.ClipboardFailed = "Could not write to the clipboard"
	}
	if c.Messages.InitFailed == "" {
		c.Messages.InitFailed = "Could not initialize Markdown converter"
	}
	if c.Clipboard.Backend == "" {
		c.Clipboard.Backend = "auto"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8765"
	}
	if c.Server.MaxBody <= 0 {
		c.Server.MaxBody = 10 << 20
	}
	if c.Server.MaxPages <= 0 {
		c.Server.MaxPages = 8
	}
	for i := range c.Notify {
		if c.Notify[i].Type == "webhook" && c.Notify[i].Retries <= 0 {
			c.Notify[i].Retries = 3
		}
	}
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if _, err := browser.ParseMode(c.Browser.Mode); err != nil {
		return fmt.Errorf("config: browser.mode: %w", err)
	}
	if _, err := toolbar.ParseTheme(c.Theme.Toolbar); err != nil {
		return fmt.Errorf("config: theme.toolbar: %w", err)
	}
	if _, err := toolbar.ParseColorScheme(c.Theme.SelectionColor); err != nil {
		return fmt.Errorf("config: theme.selection_color: %w", err)
	}
	switch c.Clipboard.Backend {
	case "auto", "system", "page", "none":
	default:
		return fmt.Errorf("config: clipboard.backend: unknown backend %q", c.Clipboard.Backend)
	}
	for i, s := range c.Notify {
		switch s.Type {
		case "stdout", "toast":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: notify[%d]: webhook needs a url", i)
			}
		default:
			return fmt.Errorf("config: notify[%d]: unknown sink type %q", i, s.Type)
		}
	}
	return nil
}

// Manager converts the browser section into a browser.Config.
func (b BrowserConfig) Manager() (browser.Config, error) {
	mode, err := browser.ParseMode(b.Mode)
	if err != nil {
		return browser.Config{}, err
	}
	return browser.Config{
		RemoteURL:        b.Remote,
		Bin:              b.Bin,
		Mode:             mode,
		XvfbDisplay:      b.XvfbDisplay,
		UseXvfb:          b.UseXvfb,
		ResourceBlocking: b.ResourceBlocking,
		NavTimeout:       b.NavTimeout,
		MemoryLimit:      b.MemoryLimit,
		RecycleInterval:  b.RecycleInterval,
	}, nil
}
