package config

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/copymd/dbopen"
	"github.com/hazyhaar/copymd/toolbar"
	"github.com/hazyhaar/copymd/watch"
)

// SettingsSchema creates the settings table.
const SettingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Setting keys.
const (
	KeyToolbarTheme   = "toolbar_theme"
	KeySelectionColor = "selection_color"
)

// Settings are the user preferences persisted between runs. Empty fields
// mean "not set".
type Settings struct {
	ToolbarTheme   string
	SelectionColor string
}

// Apply overlays the non-empty settings on cfg.
func (s Settings) Apply(cfg *Config) {
	if s.ToolbarTheme != "" {
		cfg.Theme.Toolbar = s.ToolbarTheme
	}
	if s.SelectionColor != "" {
		cfg.Theme.SelectionColor = s.SelectionColor
	}
}

// OpenSettings opens (creating if needed) the settings database.
func OpenSettings(path string) (*sql.DB, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(SettingsSchema))
	if err != nil {
		return nil, fmt.Errorf("config: open settings: %w", err)
	}
	return db, nil
}

// LoadSettings reads the settings table. Unknown keys are ignored and
// invalid values are dropped with a warning.
func LoadSettings(ctx context.Context, db *sql.DB, logger *slog.Logger) (Settings, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return Settings{}, fmt.Errorf("config: load settings: %w", err)
	}
	defer rows.Close()

	var s Settings
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Settings{}, fmt.Errorf("config: scan setting: %w", err)
		}
		switch key {
		case KeyToolbarTheme:
			if _, err := toolbar.ParseTheme(value); err != nil {
				logger.Warn("config: ignoring setting", "key", key, "error", err)
				continue
			}
			s.ToolbarTheme = value
		case KeySelectionColor:
			if _, err := toolbar.ParseColorScheme(value); err != nil {
				logger.Warn("config: ignoring setting", "key", key, "error", err)
				continue
			}
			s.SelectionColor = value
		}
	}
	return s, rows.Err()
}

// SaveSettings upserts every non-empty field in one transaction.
func SaveSettings(ctx context.Context, db *sql.DB, s Settings) error {
	if s.ToolbarTheme != "" {
		if _, err := toolbar.ParseTheme(s.ToolbarTheme); err != nil {
			return fmt.Errorf("config: save settings: %w", err)
		}
	}
	if s.SelectionColor != "" {
		if _, err := toolbar.ParseColorScheme(s.SelectionColor); err != nil {
			return fmt.Errorf("config: save settings: %w", err)
		}
	}
	now := time.Now().UnixNano()
	return dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		for key, value := range map[string]string{
			KeyToolbarTheme:   s.ToolbarTheme,
			KeySelectionColor: s.SelectionColor,
		} {
			if value == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
			`, key, value, now); err != nil {
				return fmt.Errorf("config: save %s: %w", key, err)
			}
		}
		return nil
	})
}

// WatchSettings calls onChange with fresh settings whenever the settings
// table is written, until ctx is done. It blocks.
func WatchSettings(ctx context.Context, db *sql.DB, interval time.Duration, logger *slog.Logger, onChange func(Settings)) {
	w := watch.New(db, watch.Options{
		Interval: interval,
		Debounce: interval,
		Detector: watch.MaxColumn("settings", "updated_at"),
		Logger:   logger,
	})
	w.OnChange(ctx, func() error {
		s, err := LoadSettings(ctx, db, logger)
		if err != nil {
			return err
		}
		onChange(s)
		return nil
	})
}
