package copymd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/copymd/clipboard"
	"github.com/hazyhaar/copymd/dom"
	"github.com/hazyhaar/copymd/internal/metrics"
	"github.com/hazyhaar/copymd/markdown"
	"github.com/hazyhaar/copymd/picker"
)

// Copy sources, as recorded in metrics.
const (
	SourceElement   = "element"
	SourceSelection = "selection"
	SourceHTML      = "html"
)

var errNoConverter = errors.New("no converter")

// SelectionSource yields the HTML of the page's current text selection.
type SelectionSource interface {
	SelectionHTML(ctx context.Context) (string, error)
}

// Copier runs the copy pipeline against one document: preprocess, serialize,
// convert, write to the clipboard, and always remove the markers.
type Copier struct {
	doc       dom.Document
	conv      *markdown.Converter
	clip      clipboard.Writer
	selection SelectionSource
	sanitize  func(string) string
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

var _ picker.Copier = (*Copier)(nil)

// CopierOption configures a Copier.
type CopierOption func(*Copier)

// WithSelection enables the text-selection fallback.
func WithSelection(s SelectionSource) CopierOption {
	return func(c *Copier) { c.selection = s }
}

// WithSanitizer filters every fragment before conversion.
func WithSanitizer(fn func(string) string) CopierOption {
	return func(c *Copier) { c.sanitize = fn }
}

// WithMetrics records copies on m.
func WithMetrics(m *metrics.Metrics) CopierOption {
	return func(c *Copier) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) CopierOption {
	return func(c *Copier) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCopier builds a Copier. A nil conv makes every conversion fail with
// *InitializationError. A nil clip skips the clipboard write.
func NewCopier(doc dom.Document, conv *markdown.Converter, clip clipboard.Writer, opts ...CopierOption) *Copier {
	c := &Copier{doc: doc, conv: conv, clip: clip, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Markdown converts the element id without touching the clipboard. The
// document carries preprocessing markers only for the duration of the call.
func (c *Copier) Markdown(ctx context.Context, id dom.NodeID) (md string, err error) {
	if id == dom.NoNode {
		return "", ErrNoSelection
	}
	if c.conv == nil {
		return "", &InitializationError{Err: errNoConverter}
	}

	defer func() {
		if rerr := dom.RemoveMarkers(context.WithoutCancel(ctx), c.doc, id); rerr != nil {
			c.logger.Warn("copymd: markers left behind", "node", id, "error", rerr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			md, err = "", &ConversionError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := dom.Preprocess(ctx, c.doc, id); err != nil {
		return "", &ConversionError{Err: err}
	}
	fragment, err := c.doc.OuterHTML(ctx, id)
	if err != nil {
		return "", &ConversionError{Err: fmt.Errorf("outer html: %w", err)}
	}
	base, err := c.doc.BaseURL(ctx)
	if err != nil {
		c.logger.Debug("copymd: no base url", "error", err)
		base = ""
	}
	return c.convert(ctx, fragment, base)
}

// CopyElement converts id and writes the result to the clipboard.
func (c *Copier) CopyElement(ctx context.Context, id dom.NodeID) (string, error) {
	start := time.Now()
	md, err := c.Markdown(ctx, id)
	if err == nil {
		err = c.write(ctx, md)
	}
	return c.finish(SourceElement, start, md, err)
}

// CopyTextSelection converts the page's text selection and writes it to the
// clipboard. No selection source, or an empty selection, is ErrNoSelection.
func (c *Copier) CopyTextSelection(ctx context.Context) (string, error) {
	start := time.Now()
	if c.selection == nil {
		return c.finish(SourceSelection, start, "", ErrNoSelection)
	}
	fragment, err := c.selection.SelectionHTML(ctx)
	if err != nil {
		return c.finish(SourceSelection, start, "", &ConversionError{Err: fmt.Errorf("selection html: %w", err)})
	}
	if strings.TrimSpace(fragment) == "" {
		return c.finish(SourceSelection, start, "", ErrNoSelection)
	}
	base := ""
	if c.doc != nil {
		if base, err = c.doc.BaseURL(ctx); err != nil {
			base = ""
		}
	}
	md, err := c.convert(ctx, fragment, base)
	if err == nil {
		err = c.write(ctx, md)
	}
	return c.finish(SourceSelection, start, md, err)
}

// ConvertHTML converts a raw HTML string as is. No preprocessing runs, so
// style-based invisibility is not detected.
func (c *Copier) ConvertHTML(ctx context.Context, fragment, baseURL string) (string, error) {
	return c.convert(ctx, fragment, baseURL)
}

// CopyHTML converts a raw HTML string and writes it to the clipboard.
func (c *Copier) CopyHTML(ctx context.Context, fragment, baseURL string) (string, error) {
	start := time.Now()
	md, err := c.convert(ctx, fragment, baseURL)
	if err == nil {
		err = c.write(ctx, md)
	}
	return c.finish(SourceHTML, start, md, err)
}

func (c *Copier) convert(ctx context.Context, fragment, baseURL string) (string, error) {
	if c.conv == nil {
		return "", &InitializationError{Err: errNoConverter}
	}
	if c.sanitize != nil {
		fragment = c.sanitize(fragment)
	}
	return c.conv.Convert(ctx, fragment, baseURL)
}

func (c *Copier) write(ctx context.Context, md string) error {
	if c.clip == nil {
		return nil
	}
	err := c.clip.Write(ctx, md)
	if err == nil {
		return nil
	}
	var ce *ClipboardError
	if errors.As(err, &ce) {
		return err
	}
	return &ClipboardError{Backend: "unknown", Err: err}
}

func (c *Copier) finish(source string, start time.Time, md string, err error) (string, error) {
	c.metrics.RecordCopy(source, outcome(err), time.Since(start), len(md))
	if err != nil {
		return "", err
	}
	return md, nil
}

func outcome(err error) string {
	var clipErr *ClipboardError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNoSelection):
		return metrics.OutcomeNoSelection
	case errors.As(err, &clipErr):
		return metrics.OutcomeClipboardError
	default:
		return metrics.OutcomeConversionError
	}
}
