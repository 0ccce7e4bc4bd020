// Package picker implements the element-picking state machine: hover
// highlighting, click-to-select, the Escape key, outside clicks and the
// toolbar actions, over an abstract Page.
//
// Every mutation the picker makes to the page (highlight styles, the body
// cursor, listeners) is recorded and undone on every path back to Idle.
package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/copymd/dom"
	"github.com/hazyhaar/copymd/toolbar"
)

// Config configures a Picker.
type Config struct {
	// Colors is the highlight scheme. Default: elegant.
	Colors toolbar.ColorScheme
	// Toolbar configures each toolbar the picker opens.
	Toolbar toolbar.Options
	// RevertAfter is how long "Copied!" and "Error!" stay. Default: 1500ms.
	RevertAfter time.Duration
	// Go runs copy work off the event goroutine. Default: a new goroutine.
	Go func(func())
	// AfterFunc schedules the label revert. Default: toolbar.RealAfterFunc.
	AfterFunc toolbar.AfterFunc
	Logger    *slog.Logger
}

func (c *Config) defaults() {
	if c.Colors == "" {
		c.Colors = toolbar.ColorElegant
	}
	if c.RevertAfter <= 0 {
		c.RevertAfter = 1500 * time.Millisecond
	}
	if c.Go == nil {
		c.Go = func(f func()) { go f() }
	}
	if c.AfterFunc == nil {
		c.AfterFunc = toolbar.RealAfterFunc
	}
	if c.Toolbar.AfterFunc == nil {
		c.Toolbar.AfterFunc = c.AfterFunc
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Toolbar.Logger == nil {
		c.Toolbar.Logger = c.Logger
	}
}

// highlightProps are the inline properties a highlight may touch.
var highlightProps = []string{"outline", "background-color", "transition", "cursor"}

const pickCursor = "crosshair"

type savedCursor struct {
	body  dom.NodeID
	value string
}

// Picker owns the picking state of one page.
type Picker struct {
	cfg      Config
	page     Page
	renderer toolbar.Renderer
	copier   Copier
	reporter Reporter

	mu        sync.Mutex
	active    bool
	hover     dom.NodeID
	selected  dom.NodeID
	body      dom.NodeID
	listeners map[Listener]bool
	styles    map[dom.NodeID]map[string]string
	tb        *toolbar.Toolbar
	cursor    *savedCursor
}

// New creates an idle picker. reporter may be nil.
func New(page Page, renderer toolbar.Renderer, copier Copier, reporter Reporter, cfg Config) *Picker {
	cfg.defaults()
	return &Picker{
		cfg:       cfg,
		page:      page,
		renderer:  renderer,
		copier:    copier,
		reporter:  reporter,
		listeners: make(map[Listener]bool),
		styles:    make(map[dom.NodeID]map[string]string),
	}
}

// State returns the current state.
func (p *Picker) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Picker) stateLocked() State {
	switch {
	case p.active:
		return Picking
	case p.selected != dom.NoNode:
		return Selected
	}
	return Idle
}

// Hovered returns the highlighted candidate, or NoNode.
func (p *Picker) Hovered() dom.NodeID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hover
}

// SelectedNode returns the selected element, or NoNode.
func (p *Picker) SelectedNode() dom.NodeID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Toolbar returns the active toolbar, or nil.
func (p *Picker) Toolbar() *toolbar.Toolbar {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tb
}

// Listeners returns the attached listeners in attach order.
func (p *Picker) Listeners() []Listener {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Listener
	for _, l := range AllListeners {
		if p.listeners[l] {
			out = append(out, l)
		}
	}
	return out
}

// SavedStyles returns how many elements have a pending style snapshot.
func (p *Picker) SavedStyles() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.styles)
}

// Start enters Picking. It is a no-op while already picking; from Selected
// the selection is cleared first.
func (p *Picker) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startLocked(ctx)
}

func (p *Picker) startLocked(ctx context.Context) error {
	if p.active {
		return nil
	}
	p.clearSelectionLocked(ctx)
	p.clearHoverLocked(ctx)
	p.active = true

	var errs []error
	if err := p.saveBodyCursorLocked(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, l := range []Listener{ListenMouseOver, ListenMouseOut, ListenKeyDown} {
		if err := p.attachLocked(ctx, l, false); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.attachLocked(ctx, ListenClick, true); err != nil {
		errs = append(errs, err)
	}

	if id, err := p.page.ElementAtCenter(ctx); err != nil {
		p.cfg.Logger.Debug("picker: auto-hover unavailable", "error", err)
	} else {
		p.hoverLocked(ctx, id)
	}

	p.cfg.Logger.Debug("picker: started", "hover", p.hover)
	return errors.Join(errs...)
}

// Stop leaves picking and selection and restores everything the picker
// changed on the page.
func (p *Picker) Stop(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked(ctx)
}

func (p *Picker) stopLocked(ctx context.Context) {
	for _, l := range AllListeners {
		p.detachLocked(ctx, l)
	}
	p.active = false
	p.clearHoverLocked(ctx)
	p.restoreBodyCursorLocked(ctx)
	p.clearSelectionLocked(ctx)
	p.cfg.Logger.Debug("picker: stopped")
}

// ClearSelection restores the selected element and removes its toolbar.
func (p *Picker) ClearSelection(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearSelectionLocked(ctx)
}

func (p *Picker) clearSelectionLocked(ctx context.Context) {
	if p.tb != nil {
		if err := p.tb.Close(ctx); err != nil {
			p.cfg.Logger.Warn("picker: close toolbar", "error", err)
		}
		p.tb = nil
	}
	if p.selected != dom.NoNode {
		p.restoreLocked(ctx, p.selected)
		p.selected = dom.NoNode
	}
	p.detachLocked(ctx, ListenOutsideClick)
	p.detachLocked(ctx, ListenScroll)
	p.detachLocked(ctx, ListenResize)
	if !p.active {
		p.detachLocked(ctx, ListenKeyDown)
	}
}

// Repick drops the selection and starts picking again.
func (p *Picker) Repick(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearSelectionLocked(ctx)
	return p.startLocked(ctx)
}

// Cancel drops the selection.
func (p *Picker) Cancel(ctx context.Context) {
	p.ClearSelection(ctx)
}

// ErrNoNode is returned by Select for NoNode.
var ErrNoNode = errors.New("picker: no node to select")

// Select confirms id as the selection without a pointer pick, from any
// state. It is how selector-based picking drives the picker.
func (p *Picker) Select(ctx context.Context, id dom.NodeID) error {
	if id == dom.NoNode {
		return ErrNoNode
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hover != id {
		p.clearHoverLocked(ctx)
	}
	p.selectLocked(ctx, id)
	return nil
}

// Dispatch applies one page event.
func (p *Picker) Dispatch(ctx context.Context, e Event) {
	if e.Kind == ToolbarAction {
		p.onToolbarAction(ctx, e)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := listenerFor(e.Kind); ok && !p.listeners[l] {
		return
	}

	switch e.Kind {
	case MouseOver:
		if !p.active || e.InToolbar {
			return
		}
		p.hoverLocked(ctx, e.Target)

	case MouseOut:
		p.onMouseOutLocked(ctx, e)

	case Click:
		if !p.active || p.hover == dom.NoNode || e.InToolbar {
			return
		}
		p.selectLocked(ctx, p.hover)

	case KeyDown:
		if e.Key != "Escape" {
			return
		}
		if p.active {
			p.stopLocked(ctx)
		} else if p.selected != dom.NoNode {
			p.clearSelectionLocked(ctx)
		}

	case OutsideClick:
		p.onOutsideClickLocked(ctx, e)

	case Scroll, Resize:
		if p.tb != nil {
			p.tb.RequestReposition()
		}
	}
}

func listenerFor(k EventKind) (Listener, bool) {
	switch k {
	case MouseOver:
		return ListenMouseOver, true
	case MouseOut:
		return ListenMouseOut, true
	case Click:
		return ListenClick, true
	case KeyDown:
		return ListenKeyDown, true
	case OutsideClick:
		return ListenOutsideClick, true
	case Scroll:
		return ListenScroll, true
	case Resize:
		return ListenResize, true
	}
	return 0, false
}

func (p *Picker) hoverLocked(ctx context.Context, id dom.NodeID) {
	if id == dom.NoNode || id == p.selected || id == p.hover || id == p.body {
		return
	}
	n, err := p.page.Inspect(ctx, id)
	if err != nil {
		p.cfg.Logger.Debug("picker: inspect", "node", id, "error", err)
		return
	}
	if !dom.IsHoverable(n) {
		return
	}

	p.clearHoverLocked(ctx)
	if err := p.highlightLocked(ctx, id, p.cfg.Colors.Hover()); err != nil {
		p.cfg.Logger.Warn("picker: highlight", "node", id, "error", err)
		p.restoreLocked(ctx, id)
		return
	}
	p.hover = id
	if err := p.page.SetPickTarget(ctx, id); err != nil {
		p.cfg.Logger.Warn("picker: set pick target", "node", id, "error", err)
	}
}

func (p *Picker) clearHoverLocked(ctx context.Context) {
	if p.hover == dom.NoNode {
		return
	}
	p.restoreLocked(ctx, p.hover)
	p.hover = dom.NoNode
	if err := p.page.SetPickTarget(ctx, dom.NoNode); err != nil {
		p.cfg.Logger.Warn("picker: clear pick target", "error", err)
	}
}

// onMouseOutLocked clears the hover only when the pointer left for
// something that is neither hoverable nor part of the toolbar.
func (p *Picker) onMouseOutLocked(ctx context.Context, e Event) {
	if !p.active || p.hover == dom.NoNode || e.Target != p.hover {
		return
	}
	if e.RelatedInToolbar {
		return
	}
	if e.Related != dom.NoNode {
		n, err := p.page.Inspect(ctx, e.Related)
		if err == nil && dom.IsHoverable(n) {
			return
		}
	}
	p.clearHoverLocked(ctx)
}

func (p *Picker) selectLocked(ctx context.Context, id dom.NodeID) {
	if p.selected != dom.NoNode {
		p.clearSelectionLocked(ctx)
	}

	// The hover snapshot already holds the original style of id.
	p.hover = dom.NoNode
	p.selected = id
	p.active = false

	p.detachLocked(ctx, ListenMouseOver)
	p.detachLocked(ctx, ListenMouseOut)
	p.detachLocked(ctx, ListenClick)
	if err := p.page.SetPickTarget(ctx, dom.NoNode); err != nil {
		p.cfg.Logger.Warn("picker: clear pick target", "error", err)
	}
	p.restoreBodyCursorLocked(ctx)

	if err := p.highlightLocked(ctx, id, p.cfg.Colors.Selected()); err != nil {
		p.cfg.Logger.Warn("picker: highlight selection", "node", id, "error", err)
	}

	tb := toolbar.New(p.renderer, id, p.cfg.Toolbar)
	p.tb = tb
	if err := tb.Open(ctx); err != nil {
		p.cfg.Logger.Warn("picker: open toolbar", "node", id, "error", err)
	}

	if !p.listeners[ListenKeyDown] {
		if err := p.attachLocked(ctx, ListenKeyDown, false); err != nil {
			p.cfg.Logger.Warn("picker: attach", "listener", ListenKeyDown, "error", err)
		}
	}
	if err := p.attachLocked(ctx, ListenOutsideClick, true); err != nil {
		p.cfg.Logger.Warn("picker: attach", "listener", ListenOutsideClick, "error", err)
	}
	for _, l := range []Listener{ListenScroll, ListenResize} {
		if err := p.attachLocked(ctx, l, false); err != nil {
			p.cfg.Logger.Warn("picker: attach", "listener", l, "error", err)
		}
	}
	p.cfg.Logger.Info("picker: element selected", "node", id, "toolbar", tb.ID())
}

func (p *Picker) onOutsideClickLocked(ctx context.Context, e Event) {
	if p.selected == dom.NoNode || e.InToolbar || e.Target == p.selected {
		return
	}
	if e.Target != dom.NoNode {
		inside, err := p.page.Contains(ctx, p.selected, e.Target)
		if err != nil {
			p.cfg.Logger.Debug("picker: contains", "error", err)
			return
		}
		if inside {
			return
		}
	}
	p.clearSelectionLocked(ctx)
}

func (p *Picker) onToolbarAction(ctx context.Context, e Event) {
	p.mu.Lock()
	stale := p.tb == nil || e.ToolbarID != p.tb.ID()
	p.mu.Unlock()
	if stale {
		p.cfg.Logger.Debug("picker: stale toolbar action", "toolbar", e.ToolbarID, "action", e.Action)
		return
	}

	switch e.Action {
	case ActionCopy:
		p.CopySelection(ctx)
	case ActionRepick:
		if err := p.Repick(ctx); err != nil {
			p.cfg.Logger.Warn("picker: repick", "error", err)
		}
	case ActionCancel:
		p.Cancel(ctx)
	default:
		p.cfg.Logger.Debug("picker: unknown toolbar action", "action", e.Action)
	}
}

// CopySelection copies the selection on the executor and returns at once.
// The outcome goes to the Reporter and the toolbar.
func (p *Picker) CopySelection(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	p.cfg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				p.cfg.Logger.Error("picker: copy panicked", "panic", r)
			}
		}()
		_, _ = p.Copy(ctx)
	})
}

// Copy converts the selected element, or the page's text selection when
// nothing is selected, and writes it to the clipboard. The toolbar shows
// progress and reverts after RevertAfter if it is still the active one.
func (p *Picker) Copy(ctx context.Context) (string, error) {
	p.mu.Lock()
	target, tb := p.selected, p.tb
	if tb != nil {
		if err := tb.SetState(ctx, toolbar.StateCopying); err != nil {
			p.cfg.Logger.Debug("picker: toolbar state", "error", err)
		}
	}
	p.mu.Unlock()

	var (
		md  string
		err error
	)
	if target != dom.NoNode {
		md, err = p.copier.CopyElement(ctx, target)
	} else {
		md, err = p.copier.CopyTextSelection(ctx)
	}

	if p.reporter != nil {
		if err != nil {
			p.reporter.CopyFailed(ctx, err)
		} else {
			p.reporter.CopySucceeded(ctx, md)
		}
	}
	if err != nil {
		p.cfg.Logger.Warn("picker: copy failed", "node", target, "error", err)
	} else {
		p.cfg.Logger.Info("picker: copied", "node", target, "bytes", len(md))
	}

	if tb != nil {
		p.finishCopy(ctx, tb, err)
	}
	if err != nil {
		return "", fmt.Errorf("picker: copy: %w", err)
	}
	return md, nil
}

func (p *Picker) finishCopy(ctx context.Context, tb *toolbar.Toolbar, copyErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tb != tb {
		return
	}
	state := toolbar.StateCopied
	if copyErr != nil {
		state = toolbar.StateError
	}
	if err := tb.SetState(ctx, state); err != nil {
		p.cfg.Logger.Debug("picker: toolbar state", "error", err)
	}
	p.cfg.AfterFunc(p.cfg.RevertAfter, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.tb != tb {
			return
		}
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := tb.SetState(rctx, toolbar.StateIdle); err != nil {
			p.cfg.Logger.Debug("picker: toolbar revert", "error", err)
		}
	})
}

func (p *Picker) attachLocked(ctx context.Context, l Listener, deferred bool) error {
	p.detachLocked(ctx, l)
	if err := p.page.Listen(ctx, l, deferred); err != nil {
		return fmt.Errorf("picker: listen %s: %w", l, err)
	}
	p.listeners[l] = true
	return nil
}

func (p *Picker) detachLocked(ctx context.Context, l Listener) {
	if !p.listeners[l] {
		return
	}
	delete(p.listeners, l)
	if err := p.page.Unlisten(ctx, l); err != nil {
		p.cfg.Logger.Warn("picker: unlisten", "listener", l, "error", err)
	}
}

// highlightLocked snapshots the element's inline style on first touch and
// applies h over it.
func (p *Picker) highlightLocked(ctx context.Context, id dom.NodeID, h toolbar.Highlight) error {
	if _, ok := p.styles[id]; !ok {
		orig, err := p.page.InlineStyle(ctx, id, highlightProps)
		if err != nil {
			return fmt.Errorf("picker: read style: %w", err)
		}
		saved := make(map[string]string, len(highlightProps))
		for _, prop := range highlightProps {
			saved[prop] = orig[prop]
		}
		p.styles[id] = saved
	}
	set := make(map[string]string, len(h))
	for _, prop := range highlightProps {
		if v, ok := h[prop]; ok {
			set[prop] = v
		}
	}
	if err := p.page.SetInlineStyle(ctx, id, set); err != nil {
		return fmt.Errorf("picker: write style: %w", err)
	}
	return nil
}

// restoreLocked puts back the snapshot of id. The snapshot is dropped even
// when the write fails, so the table never grows.
func (p *Picker) restoreLocked(ctx context.Context, id dom.NodeID) {
	saved, ok := p.styles[id]
	if !ok {
		return
	}
	delete(p.styles, id)
	if err := p.page.SetInlineStyle(ctx, id, saved); err != nil {
		p.cfg.Logger.Warn("picker: restore style", "node", id, "error", err)
	}
}

func (p *Picker) saveBodyCursorLocked(ctx context.Context) error {
	if p.cursor != nil {
		return nil
	}
	body, err := p.page.Body(ctx)
	if err != nil {
		return fmt.Errorf("picker: body: %w", err)
	}
	if body == dom.NoNode {
		return nil
	}
	p.body = body
	cur, err := p.page.InlineStyle(ctx, body, []string{"cursor"})
	if err != nil {
		return fmt.Errorf("picker: read body cursor: %w", err)
	}
	p.cursor = &savedCursor{body: body, value: cur["cursor"]}
	if err := p.page.SetInlineStyle(ctx, body, map[string]string{"cursor": pickCursor}); err != nil {
		return fmt.Errorf("picker: set body cursor: %w", err)
	}
	return nil
}

func (p *Picker) restoreBodyCursorLocked(ctx context.Context) {
	if p.cursor == nil {
		return
	}
	c := p.cursor
	p.cursor = nil
	if err := p.page.SetInlineStyle(ctx, c.body, map[string]string{"cursor": c.value}); err != nil {
		p.cfg.Logger.Warn("picker: restore body cursor", "error", err)
	}
}
