package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Router fans out notices to all configured sinks. One sink error does not
// block the others: errors are logged and the first encountered is
// returned.
type Router struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Add registers another sink.
func (r *Router) Add(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

func (r *Router) Notify(ctx context.Context, n Notice) error {
	r.mu.RLock()
	sinks := r.sinks
	r.mu.RUnlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.Notify(ctx, n); err != nil {
			r.logger.Warn("notify: send failed", "kind", n.Kind, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
