package notify

import "context"

// Func is called for each notice, in-process.
type Func func(ctx context.Context, n Notice) error

// Callback delivers notices via a Go function call.
type Callback struct {
	fn Func
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn Func) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Notify(ctx context.Context, n Notice) error {
	if c.fn != nil {
		return c.fn(ctx, n)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
