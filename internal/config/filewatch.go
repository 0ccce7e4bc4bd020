package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchFile reloads the YAML file at path whenever it is written, renamed
// over or recreated, and passes each successfully parsed config to
// onChange. Parse failures are logged and the previous config stays in
// effect. It blocks until ctx is done.
//
// The parent directory is watched rather than the file so that editors
// that replace the file atomically are followed.
func WatchFile(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}

	const settle = 100 * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(settle)
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config: watch error", "error", err)

		case <-fire:
			fire = nil
			cfg, err := LoadFile(abs)
			if err != nil {
				logger.Warn("config: reload failed, keeping previous config", "path", abs, "error", err)
				continue
			}
			logger.Info("config: reloaded", "path", abs)
			onChange(cfg)
		}
	}
}
