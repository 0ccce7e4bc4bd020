// Package watch polls a SQLite database for a version token and runs a
// reload when it moves. copymd uses it to pick up settings written by
// another process while `copymd serve` is running.
package watch

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Detector reads a version token. Two different values mean the watched
// data changed.
type Detector func(ctx context.Context, db *sql.DB) (int64, error)

// Options tunes a Watcher.
type Options struct {
	// Interval is the polling period. Default: 1s.
	Interval time.Duration
	// Debounce is the quiet period required after a change before the
	// reload runs. Zero reloads on the next poll.
	Debounce time.Duration
	// Detector defaults to PragmaDataVersion.
	Detector Detector
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Detector == nil {
		o.Detector = PragmaDataVersion
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Stats are point-in-time counters.
type Stats struct {
	Checks  int64 `json:"checks"`
	Changes int64 `json:"changes"`
	Errors  int64 `json:"errors"`
	Reloads int64 `json:"reloads"`
}

// Watcher runs the poll loop. Safe for concurrent use.
type Watcher struct {
	db   *sql.DB
	opts Options

	version atomic.Int64
	checks  atomic.Int64
	changes atomic.Int64
	errors  atomic.Int64
	reloads atomic.Int64
}

// New creates a Watcher. Call OnChange to start it.
func New(db *sql.DB, opts Options) *Watcher {
	opts.defaults()
	w := &Watcher{db: db, opts: opts}
	w.version.Store(-1)
	return w
}

// Version returns the last version whose reload succeeded, or -1.
func (w *Watcher) Version() int64 { return w.version.Load() }

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Checks:  w.checks.Load(),
		Changes: w.changes.Load(),
		Errors:  w.errors.Load(),
		Reloads: w.reloads.Load(),
	}
}

// OnChange blocks until ctx is done. A failed reload leaves the version
// where it was, so the next poll retries it.
func (w *Watcher) OnChange(ctx context.Context, reload func() error) {
	log := w.opts.Logger

	if v, err := w.opts.Detector(ctx, w.db); err != nil {
		log.Warn("watch: initial version check failed", "error", err)
	} else {
		w.version.Store(v)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var quiet <-chan time.Time
	var quietTimer *time.Timer
	pending := int64(-1)

	for {
		select {
		case <-ctx.Done():
			if quietTimer != nil {
				quietTimer.Stop()
			}
			return

		case <-ticker.C:
			w.checks.Add(1)
			cur, err := w.opts.Detector(ctx, w.db)
			if err != nil {
				w.errors.Add(1)
				log.Warn("watch: version check failed", "error", err)
				continue
			}
			if cur == w.version.Load() || cur == pending {
				continue
			}
			w.changes.Add(1)
			pending = cur
			if w.opts.Debounce <= 0 {
				w.fire(reload, pending)
				pending = -1
				continue
			}
			if quietTimer != nil {
				quietTimer.Stop()
			}
			quietTimer = time.NewTimer(w.opts.Debounce)
			quiet = quietTimer.C

		case <-quiet:
			quiet = nil
			if pending >= 0 {
				w.fire(reload, pending)
				pending = -1
			}
		}
	}
}

func (w *Watcher) fire(reload func() error, v int64) {
	if err := reload(); err != nil {
		w.errors.Add(1)
		w.opts.Logger.Error("watch: reload failed", "error", err, "version", v)
		return
	}
	w.reloads.Add(1)
	w.version.Store(v)
	w.opts.Logger.Info("watch: reloaded", "version", v)
}

// PragmaDataVersion changes whenever another connection commits to the
// database file.
func PragmaDataVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var v int64
	err := db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
	return v, err
}

// MaxColumn watches MAX(column) of a table, typically an updated_at stamp.
func MaxColumn(table, column string) Detector {
	query := "SELECT COALESCE(MAX(" + quoteIdent(column) + "), 0) FROM " + quoteIdent(table)
	return func(ctx context.Context, db *sql.DB) (int64, error) {
		var v int64
		err := db.QueryRowContext(ctx, query).Scan(&v)
		return v, err
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
