package copymd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/copymd/dom"
	"github.com/hazyhaar/copymd/dom/htmldoc"
	"github.com/hazyhaar/copymd/internal/browser"
	"github.com/hazyhaar/copymd/internal/fetcher"
	"github.com/hazyhaar/copymd/internal/metrics"
	"github.com/hazyhaar/copymd/markdown"
)

// SourceURL labels conversions of a whole URL in metrics.
const SourceURL = "url"

var (
	// ErrNoBrowser is returned for browser conversions on an engine without
	// a browser manager.
	ErrNoBrowser = errors.New("copymd: no browser configured")
	// ErrFetch wraps failures to download a page.
	ErrFetch = errors.New("copymd: fetch failed")
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	// Fetcher downloads pages in HTTP-only mode. Default: fetcher.New().
	Fetcher *fetcher.Fetcher
	// Browser runs conversions on a real tab. Nil disables them.
	Browser *browser.Manager
	// Sanitize filters every fragment through NewSanitizer.
	Sanitize        bool
	MarkdownOptions []markdown.Option
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
}

// Engine converts documents without a user: pasted HTML, fetched pages and
// headless tabs, with an optional CSS selector standing in for a pick. It
// is safe for concurrent use.
type Engine struct {
	cfg      EngineConfig
	conv     *markdown.Converter
	initErr  error
	sanitize func(string) string
}

// NewEngine builds an Engine. A converter failure is kept and returned by
// every conversion.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetcher.New(fetcher.WithLogger(cfg.Logger))
	}
	e := &Engine{cfg: cfg}
	opts := append([]markdown.Option{markdown.WithLogger(cfg.Logger)}, cfg.MarkdownOptions...)
	e.conv, e.initErr = markdown.New(opts...)
	if e.initErr != nil {
		cfg.Logger.Error("copymd: converter init failed", "error", e.initErr)
	}
	if cfg.Sanitize {
		e.sanitize = NewSanitizer()
	}
	return e
}

// Converter returns the shared converter and its initialization error.
func (e *Engine) Converter() (*markdown.Converter, error) { return e.conv, e.initErr }

// Sanitizer returns the fragment filter, or nil when sanitizing is off.
func (e *Engine) Sanitizer() func(string) string { return e.sanitize }

// Metrics returns the engine's metrics, possibly nil.
func (e *Engine) Metrics() *metrics.Metrics { return e.cfg.Metrics }

// Browser returns the browser manager, possibly nil.
func (e *Engine) Browser() *browser.Manager { return e.cfg.Browser }

// ConvertHTML parses a whole HTML document, picks the first element matching
// selector (the body when selector is empty) and converts it with the full
// preprocessing pass. baseURL resolves relative links unless the document
// has its own <base>.
func (e *Engine) ConvertHTML(ctx context.Context, html, baseURL, selector string) (string, error) {
	start := time.Now()
	md, err := e.convertHTML(ctx, html, baseURL, selector)
	e.cfg.Metrics.RecordCopy(SourceHTML, outcome(err), time.Since(start), len(md))
	return md, err
}

func (e *Engine) convertHTML(ctx context.Context, html, baseURL, selector string) (string, error) {
	if e.initErr != nil {
		return "", e.initErr
	}
	doc, err := htmldoc.ParseString(html, baseURL)
	if err != nil {
		return "", &ConversionError{Err: err}
	}
	id := doc.Body()
	if selector != "" {
		if id, err = doc.Select(selector); err != nil {
			if errors.Is(err, htmldoc.ErrNoMatch) {
				return "", fmt.Errorf("%w: %q matches no element", ErrNoSelection, selector)
			}
			return "", fmt.Errorf("copymd: selector %q: %w", selector, err)
		}
	}
	return e.copier(doc).Markdown(ctx, id)
}

// ConvertURL converts the page at pageURL. With useBrowser the page is
// rendered in a tab first; otherwise it is fetched over HTTP and converted
// as a static document.
func (e *Engine) ConvertURL(ctx context.Context, pageURL, selector string, useBrowser bool) (string, error) {
	start := time.Now()
	var (
		md  string
		err error
	)
	if useBrowser {
		md, err = e.convertTab(ctx, pageURL, selector)
	} else {
		md, err = e.convertFetched(ctx, pageURL, selector)
	}
	e.cfg.Metrics.RecordCopy(SourceURL, outcome(err), time.Since(start), len(md))
	return md, err
}

func (e *Engine) convertFetched(ctx context.Context, pageURL, selector string) (string, error) {
	if e.initErr != nil {
		return "", e.initErr
	}
	res, err := e.cfg.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	e.cfg.Metrics.RecordFetch(res.Sufficient)
	if !res.Sufficient {
		e.cfg.Logger.Warn("copymd: page looks script-rendered, try a browser", "url", res.URL)
	}
	return e.convertHTML(ctx, string(res.HTML), res.URL, selector)
}

func (e *Engine) convertTab(ctx context.Context, pageURL, selector string) (string, error) {
	if e.initErr != nil {
		return "", e.initErr
	}
	if e.cfg.Browser == nil {
		return "", ErrNoBrowser
	}
	if _, err := e.cfg.Browser.Start(context.WithoutCancel(ctx)); err != nil {
		return "", fmt.Errorf("copymd: %w", err)
	}
	tab, err := browser.OpenTab(ctx, e.cfg.Browser, pageURL)
	if err != nil {
		return "", fmt.Errorf("copymd: %w", err)
	}
	e.cfg.Metrics.PageOpened()
	defer func() {
		if err := tab.Close(); err != nil {
			e.cfg.Logger.Debug("copymd: close tab", "page", tab.ID, "error", err)
		}
		e.cfg.Metrics.PageClosed()
	}()

	var id dom.NodeID
	if selector == "" {
		id, err = tab.Bridge.Body(ctx)
	} else {
		id, err = tab.Bridge.Select(ctx, selector)
	}
	if err != nil {
		return "", &ConversionError{Err: err}
	}
	if id == dom.NoNode {
		return "", fmt.Errorf("%w: %q matches no element", ErrNoSelection, selector)
	}
	return e.copier(tab.Bridge).Markdown(ctx, id)
}

func (e *Engine) copier(doc dom.Document) *Copier {
	return NewCopier(doc, e.conv, nil,
		WithSanitizer(e.sanitize),
		WithMetrics(e.cfg.Metrics),
		WithLogger(e.cfg.Logger),
	)
}
