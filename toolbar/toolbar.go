// Package toolbar models the floating action bar shown next to a selected
// element: its placement relative to the viewport, the visual state of the
// copy action and the throttled repositioning on scroll and resize.
//
// Drawing is delegated to a Renderer; the browser bridge implements it over
// CDP and tests use an in-memory fake.
package toolbar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/copymd/dom"
	"github.com/hazyhaar/copymd/idgen"
)

// View is everything a Renderer needs to draw a toolbar.
type View struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	State   string  `json:"state"`
	Repick  string  `json:"repick"`
	Cancel  string  `json:"cancel"`
	Palette Palette `json:"palette"`
}

// Renderer draws toolbars inside the page.
type Renderer interface {
	// Measure renders v off-screen and reports its size.
	Measure(ctx context.Context, v View) (Size, error)
	// Viewport reports the visible area of the page.
	Viewport(ctx context.Context) (Size, error)
	// TargetRect reports the viewport-relative box of an element.
	TargetRect(ctx context.Context, target dom.NodeID) (dom.Rect, error)
	Show(ctx context.Context, v View, at Point) error
	Move(ctx context.Context, id string, at Point) error
	Update(ctx context.Context, v View) error
	Remove(ctx context.Context, id string) error
}

// Options configures a Toolbar.
type Options struct {
	Theme  Theme
	Labels Labels
	// IDs generates toolbar identities. Default: "tb_" prefixed NanoID.
	IDs idgen.Generator
	// Frame is the repositioning throttle window.
	Frame     time.Duration
	AfterFunc AfterFunc
	// OpTimeout bounds renderer calls made from the throttle.
	OpTimeout time.Duration
	Logger    *slog.Logger
}

func (o *Options) defaults() {
	if o.Theme == "" {
		o.Theme = ThemeLight
	}
	o.Labels = o.Labels.WithDefaults()
	if o.IDs == nil {
		o.IDs = idgen.Prefixed("tb_", idgen.NanoID(10))
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 2 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Toolbar is one floating bar bound to one selected element. A Toolbar is
// never reused: closing it is final.
type Toolbar struct {
	id     string
	target dom.NodeID
	r      Renderer
	opts   Options
	thr    *throttle

	mu     sync.Mutex
	state  State
	open   bool
	closed bool
	size   Size
	pos    Point
}

// New creates a toolbar for target. Nothing is drawn until Open.
func New(r Renderer, target dom.NodeID, opts Options) *Toolbar {
	opts.defaults()
	t := &Toolbar{
		id:     opts.IDs(),
		target: target,
		r:      r,
		opts:   opts,
	}
	t.thr = newThrottle(throttleConfig{Frame: opts.Frame, AfterFunc: opts.AfterFunc}, t.flushReposition)
	return t
}

// ID returns the toolbar identity carried by its action events.
func (t *Toolbar) ID() string { return t.id }

// Target returns the element the toolbar is attached to.
func (t *Toolbar) Target() dom.NodeID { return t.target }

// State returns the current visual state.
func (t *Toolbar) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsOpen reports whether the toolbar is currently drawn.
func (t *Toolbar) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

// Position returns the last placement.
func (t *Toolbar) Position() Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

func (t *Toolbar) view() View {
	return View{
		ID:      t.id,
		Label:   t.opts.Labels.For(t.state),
		State:   t.state.String(),
		Repick:  t.opts.Labels.Repick,
		Cancel:  t.opts.Labels.Cancel,
		Palette: t.opts.Theme.Palette(),
	}
}

// Open measures, places and draws the toolbar.
func (t *Toolbar) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("toolbar %s: already closed", t.id)
	}
	if t.open {
		return nil
	}

	v := t.view()
	size, err := t.r.Measure(ctx, v)
	if err != nil {
		return fmt.Errorf("toolbar %s: measure: %w", t.id, err)
	}
	pos, err := t.place(ctx, size)
	if err != nil {
		return err
	}
	if err := t.r.Show(ctx, v, pos); err != nil {
		return fmt.Errorf("toolbar %s: show: %w", t.id, err)
	}
	t.size, t.pos, t.open = size, pos, true
	return nil
}

func (t *Toolbar) place(ctx context.Context, size Size) (Point, error) {
	rect, err := t.r.TargetRect(ctx, t.target)
	if err != nil {
		return Point{}, fmt.Errorf("toolbar %s: target rect: %w", t.id, err)
	}
	vp, err := t.r.Viewport(ctx)
	if err != nil {
		return Point{}, fmt.Errorf("toolbar %s: viewport: %w", t.id, err)
	}
	return Place(rect, size, vp), nil
}

// Reposition recomputes the placement from the target's current box.
func (t *Toolbar) Reposition(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return nil
	}
	pos, err := t.place(ctx, t.size)
	if err != nil {
		return err
	}
	if pos == t.pos {
		return nil
	}
	if err := t.r.Move(ctx, t.id, pos); err != nil {
		return fmt.Errorf("toolbar %s: move: %w", t.id, err)
	}
	t.pos = pos
	return nil
}

// RequestReposition schedules a Reposition on the next frame. Bursts
// collapse into one call.
func (t *Toolbar) RequestReposition() {
	t.thr.trigger()
}

func (t *Toolbar) flushReposition() {
	ctx, cancel := context.WithTimeout(context.Background(), t.opts.OpTimeout)
	defer cancel()
	if err := t.Reposition(ctx); err != nil {
		t.opts.Logger.Warn("toolbar: reposition failed", "toolbar", t.id, "error", err)
	}
}

// SetState updates the primary action. A closed toolbar ignores it.
func (t *Toolbar) SetState(ctx context.Context, s State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	if !t.open {
		return nil
	}
	if err := t.r.Update(ctx, t.view()); err != nil {
		return fmt.Errorf("toolbar %s: update: %w", t.id, err)
	}
	return nil
}

// Close removes the toolbar and cancels pending repositioning.
func (t *Toolbar) Close(ctx context.Context) error {
	t.thr.stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	wasOpen := t.open
	t.open, t.closed = false, true
	if !wasOpen {
		return nil
	}
	if err := t.r.Remove(ctx, t.id); err != nil {
		return fmt.Errorf("toolbar %s: remove: %w", t.id, err)
	}
	return nil
}
