package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/copymd/dom"
	"github.com/hazyhaar/copymd/internal/notify"
	"github.com/hazyhaar/copymd/picker"
	"github.com/hazyhaar/copymd/toolbar"
)

//go:embed bridge.js
var bridgeJS string

const bindingName = "__copymd_binding"

// Bridge is the Go side of the script injected into a page. It exposes the
// live document as a picker.Page, a dom.Document and a toolbar.Renderer.
type Bridge struct {
	page   *rod.Page
	logger *slog.Logger
}

var (
	_ picker.Page      = (*Bridge)(nil)
	_ dom.Document     = (*Bridge)(nil)
	_ toolbar.Renderer = (*Bridge)(nil)
)

// Install registers the event binding and injects the bridge into the
// current document and every document the page navigates to.
func Install(ctx context.Context, page *rod.Page, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := page.Context(ctx)

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(p); err != nil {
		logger.Warn("browser: addBinding failed (may already exist)", "error", err)
	}
	if _, err := p.EvalOnNewDocument("(" + bridgeJS + ")()"); err != nil {
		logger.Warn("browser: bridge on new document failed", "error", err)
	}
	if _, err := p.Eval(bridgeJS); err != nil {
		return nil, fmt.Errorf("browser: inject bridge: %w", err)
	}
	return &Bridge{page: page, logger: logger}, nil
}

// call invokes window.__copymd[fn](args...) and decodes the result into
// out when out is non-nil.
func (b *Bridge) call(ctx context.Context, out any, fn string, args ...any) error {
	res, err := b.page.Context(ctx).Eval(`(fn, ...args) => window.__copymd[fn](...args)`, append([]any{fn}, args...)...)
	if err != nil {
		return fmt.Errorf("browser: bridge %s: %w", fn, err)
	}
	if out == nil {
		return nil
	}
	if err := res.Value.Unmarshal(out); err != nil {
		return fmt.Errorf("browser: bridge %s: decode: %w", fn, err)
	}
	return nil
}

// Run delivers page events to handle until ctx is done. Events are handled
// one at a time, in arrival order, off the CDP event goroutine.
func (b *Bridge) Run(ctx context.Context, handle func(context.Context, picker.Event)) {
	events := make(chan picker.Event, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				handle(ctx, ev)
			}
		}
	}()

	b.page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		ev, err := DecodeEvent(e.Payload)
		if err != nil {
			b.logger.Warn("browser: bad bridge payload", "error", err)
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})()
	<-done
}

// Reset detaches every listener and removes every toolbar in the page.
func (b *Bridge) Reset(ctx context.Context) error {
	return b.call(ctx, nil, "reset")
}

// Select returns the first element matching a CSS selector, or NoNode.
func (b *Bridge) Select(ctx context.Context, selector string) (dom.NodeID, error) {
	var id dom.NodeID
	err := b.call(ctx, &id, "select", selector)
	return id, err
}

func (b *Bridge) Inspect(ctx context.Context, id dom.NodeID) (*dom.Node, error) {
	var n dom.Node
	if err := b.call(ctx, &n, "inspect", id); err != nil {
		return nil, err
	}
	return &n, nil
}

func (b *Bridge) ElementAtCenter(ctx context.Context) (dom.NodeID, error) {
	var id dom.NodeID
	err := b.call(ctx, &id, "center")
	return id, err
}

func (b *Bridge) Body(ctx context.Context) (dom.NodeID, error) {
	var id dom.NodeID
	err := b.call(ctx, &id, "body")
	return id, err
}

func (b *Bridge) Contains(ctx context.Context, ancestor, node dom.NodeID) (bool, error) {
	var ok bool
	err := b.call(ctx, &ok, "contains", ancestor, node)
	return ok, err
}

func (b *Bridge) InlineStyle(ctx context.Context, id dom.NodeID, props []string) (map[string]string, error) {
	out := make(map[string]string, len(props))
	err := b.call(ctx, &out, "getStyle", id, props)
	return out, err
}

func (b *Bridge) SetInlineStyle(ctx context.Context, id dom.NodeID, props map[string]string) error {
	return b.call(ctx, nil, "setStyle", id, props)
}

func (b *Bridge) SetPickTarget(ctx context.Context, id dom.NodeID) error {
	return b.call(ctx, nil, "setPickTarget", id)
}

func (b *Bridge) Listen(ctx context.Context, l picker.Listener, deferred bool) error {
	return b.call(ctx, nil, "listen", l.String(), deferred)
}

func (b *Bridge) Unlisten(ctx context.Context, l picker.Listener) error {
	return b.call(ctx, nil, "unlisten", l.String())
}

func (b *Bridge) Snapshot(ctx context.Context, root dom.NodeID) (*dom.Node, error) {
	var n dom.Node
	if err := b.call(ctx, &n, "snapshot", root); err != nil {
		return nil, err
	}
	return &n, nil
}

type jsMark struct {
	Node dom.NodeID `json:"node"`
	Attr string     `json:"attr"`
}

func (b *Bridge) SetMarkers(ctx context.Context, marks []dom.Mark) error {
	out := make([]jsMark, len(marks))
	for i, m := range marks {
		out[i] = jsMark{Node: m.Node, Attr: m.Marker.Attr()}
	}
	return b.call(ctx, nil, "setMarkers", out)
}

func (b *Bridge) RemoveMarkers(ctx context.Context, root dom.NodeID) error {
	return b.call(ctx, nil, "removeMarkers", root)
}

func (b *Bridge) OuterHTML(ctx context.Context, id dom.NodeID) (string, error) {
	var s string
	err := b.call(ctx, &s, "outerHTML", id)
	return s, err
}

func (b *Bridge) BaseURL(ctx context.Context) (string, error) {
	var s string
	err := b.call(ctx, &s, "baseURL")
	return s, err
}

// SelectionHTML returns the HTML of the page's current text selection, or
// "" when nothing is selected.
func (b *Bridge) SelectionHTML(ctx context.Context) (string, error) {
	var s string
	err := b.call(ctx, &s, "selectionHTML")
	return s, err
}

// WriteClipboard writes through navigator.clipboard in the page.
func (b *Bridge) WriteClipboard(ctx context.Context, text string) error {
	return b.call(ctx, nil, "writeClipboard", text)
}

func (b *Bridge) Measure(ctx context.Context, v toolbar.View) (toolbar.Size, error) {
	var s toolbar.Size
	err := b.call(ctx, &s, "measure", v)
	return s, err
}

func (b *Bridge) Viewport(ctx context.Context) (toolbar.Size, error) {
	var s toolbar.Size
	err := b.call(ctx, &s, "viewport")
	return s, err
}

func (b *Bridge) TargetRect(ctx context.Context, target dom.NodeID) (dom.Rect, error) {
	var r dom.Rect
	err := b.call(ctx, &r, "targetRect", target)
	return r, err
}

func (b *Bridge) Show(ctx context.Context, v toolbar.View, at toolbar.Point) error {
	return b.call(ctx, nil, "show", v, at)
}

func (b *Bridge) Move(ctx context.Context, id string, at toolbar.Point) error {
	return b.call(ctx, nil, "move", id, at)
}

func (b *Bridge) Update(ctx context.Context, v toolbar.View) error {
	return b.call(ctx, nil, "update", v)
}

func (b *Bridge) Remove(ctx context.Context, id string) error {
	return b.call(ctx, nil, "remove", id)
}

// Toast shows a transient message in the page. Alert-level notices use a
// blocking window.alert.
func (b *Bridge) Toast(ctx context.Context, level notify.Level, message string) error {
	return b.call(ctx, nil, "toast", string(level), message)
}

// ToastSink renders notices as in-page toasts.
type ToastSink struct {
	Bridge *Bridge
}

func (s ToastSink) Notify(ctx context.Context, n notify.Notice) error {
	return s.Bridge.Toast(ctx, n.Level, n.Message)
}

func (s ToastSink) Close() error { return nil }

// wireEvent is the JSON the bridge sends through the binding.
type wireEvent struct {
	Kind             string     `json:"kind"`
	Target           dom.NodeID `json:"target"`
	Related          dom.NodeID `json:"related"`
	InToolbar        bool       `json:"in_toolbar"`
	RelatedInToolbar bool       `json:"related_in_toolbar"`
	Key              string     `json:"key"`
	Action           string     `json:"action"`
	ToolbarID        string     `json:"toolbar_id"`
}

// DecodeEvent parses one binding payload.
func DecodeEvent(payload string) (picker.Event, error) {
	var w wireEvent
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return picker.Event{}, fmt.Errorf("browser: decode event: %w", err)
	}
	kind, ok := picker.ParseEventKind(w.Kind)
	if !ok {
		return picker.Event{}, fmt.Errorf("browser: unknown event kind %q", w.Kind)
	}
	return picker.Event{
		Kind:             kind,
		Target:           w.Target,
		Related:          w.Related,
		InToolbar:        w.InToolbar,
		RelatedInToolbar: w.RelatedInToolbar,
		Key:              w.Key,
		Action:           picker.Action(w.Action),
		ToolbarID:        w.ToolbarID,
	}, nil
}
