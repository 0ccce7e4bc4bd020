// Package clipboard writes converted Markdown to a clipboard: the system
// clipboard of the host, the page's own clipboard through the browser, or
// memory for tests and headless runs.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Writer puts text on a clipboard.
type Writer interface {
	Write(ctx context.Context, text string) error
}

// ErrUnsupported is returned when the host has no usable clipboard.
var ErrUnsupported = errors.New("no clipboard backend available")

// Error is a failed clipboard write.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("clipboard: %s: %v", e.Backend, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// System writes to the host clipboard (xclip/xsel/wl-copy, pbcopy or the
// Windows API, whichever atotto/clipboard finds).
type System struct{}

func (System) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Backend: "system", Err: err}
	}
	if clipboard.Unsupported {
		return &Error{Backend: "system", Err: ErrUnsupported}
	}
	if err := clipboard.WriteAll(text); err != nil {
		return &Error{Backend: "system", Err: err}
	}
	return nil
}

// Func adapts a function to Writer. Name labels its errors.
type Func struct {
	Name string
	Fn   func(ctx context.Context, text string) error
}

func (f Func) Write(ctx context.Context, text string) error {
	if err := f.Fn(ctx, text); err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return err
		}
		return &Error{Backend: f.Name, Err: err}
	}
	return nil
}

// Memory keeps every write. The zero value is ready to use.
type Memory struct {
	mu    sync.Mutex
	texts []string
}

func (m *Memory) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Backend: "memory", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

// Last returns the most recent write, or "".
func (m *Memory) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

// Len returns the number of writes.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// Fallback tries each writer in order until one succeeds.
type Fallback []Writer

func (f Fallback) Write(ctx context.Context, text string) error {
	if len(f) == 0 {
		return &Error{Backend: "fallback", Err: ErrUnsupported}
	}
	var errs []error
	for _, w := range f {
		err := w.Write(ctx, text)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return &Error{Backend: "fallback", Err: errors.Join(errs...)}
}
