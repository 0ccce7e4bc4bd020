package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are
// skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from COPYMD_* variables read through lookup
// (os.LookupEnv when nil), then re-validates.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("COPYMD_BROWSER_MODE", &cfg.Browser.Mode)
	str("COPYMD_BROWSER_REMOTE", &cfg.Browser.Remote)
	str("COPYMD_CHROME_BIN", &cfg.Browser.Bin)
	str("COPYMD_XVFB_DISPLAY", &cfg.Browser.XvfbDisplay)
	str("COPYMD_THEME", &cfg.Theme.Toolbar)
	str("COPYMD_SELECTION_COLOR", &cfg.Theme.SelectionColor)
	str("COPYMD_CLIPBOARD", &cfg.Clipboard.Backend)
	str("COPYMD_SERVER_ADDR", &cfg.Server.Addr)
	str("COPYMD_SETTINGS_DB", &cfg.SettingsDB)

	if v, ok := lookup("COPYMD_NAV_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: COPYMD_NAV_TIMEOUT: %w", err)
		}
		cfg.Browser.NavTimeout = d
	}
	if v, ok := lookup("COPYMD_WEBHOOK_URL"); ok && v != "" {
		cfg.Notify = append(cfg.Notify, SinkConfig{Type: "webhook", URL: v, Retries: 3})
	}
	return cfg.Validate()
}
