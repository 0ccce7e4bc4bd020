package copymd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hazyhaar/copymd/clipboard"
	"github.com/hazyhaar/copymd/dom"
	"github.com/hazyhaar/copymd/internal/metrics"
	"github.com/hazyhaar/copymd/internal/notify"
	"github.com/hazyhaar/copymd/markdown"
	"github.com/hazyhaar/copymd/picker"
	"github.com/hazyhaar/copymd/toolbar"
)

// Messages are the user-facing notice texts.
type Messages struct {
	Copied           string
	NoSelection      string
	ConversionFailed string
	ClipboardFailed  string
	InitFailed       string
}

// DefaultMessages returns the built-in English texts.
func DefaultMessages() Messages {
	return Messages{
		Copied:           "Copied as Markdown",
		NoSelection:      "Nothing selected. Pick an element or select some text first.",
		ConversionFailed: "Could not convert to Markdown",
		ClipboardFailed:  "Could not write to the clipboard",
		InitFailed:       "Could not initialize Markdown converter",
	}
}

func (m *Messages) defaults() {
	d := DefaultMessages()
	if m.Copied == "" {
		m.Copied = d.Copied
	}
	if m.NoSelection == "" {
		m.NoSelection = d.NoSelection
	}
	if m.ConversionFailed == "" {
		m.ConversionFailed = d.ConversionFailed
	}
	if m.ClipboardFailed == "" {
		m.ClipboardFailed = d.ClipboardFailed
	}
	if m.InitFailed == "" {
		m.InitFailed = d.InitFailed
	}
}

// ServiceConfig wires a Service to one page.
type ServiceConfig struct {
	// PageID labels notices and log lines.
	PageID string

	// Page and Renderer enable selection mode. Without them only the
	// text-selection and raw HTML copies work.
	Page     picker.Page
	Renderer toolbar.Renderer

	// Document is what preprocessing and serialization run against.
	Document  dom.Document
	Selection SelectionSource
	Clipboard clipboard.Writer
	Notifier  notify.Sink

	// Converter is shared when set. Otherwise one is built from
	// MarkdownOptions.
	Converter       *markdown.Converter
	MarkdownOptions []markdown.Option

	Sanitize func(string) string
	Messages Messages
	Picker   picker.Config
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Service is the command surface of one page: start and stop selection
// mode, copy the selection, copy raw HTML. Every outcome becomes exactly one
// notice.
type Service struct {
	cfg     ServiceConfig
	picker  *picker.Picker
	copier  *Copier
	initErr error
	logger  *slog.Logger
}

var _ picker.Reporter = (*Service)(nil)

// NewService builds a Service. A converter that fails to build does not
// fail NewService: the error is kept and surfaced on first use.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Messages.defaults()
	logger := cfg.Logger
	if cfg.PageID != "" {
		logger = logger.With("page", cfg.PageID)
	}

	s := &Service{cfg: cfg, logger: logger}

	conv := cfg.Converter
	if conv == nil {
		opts := append([]markdown.Option{markdown.WithLogger(logger)}, cfg.MarkdownOptions...)
		var err error
		if conv, err = markdown.New(opts...); err != nil {
			s.initErr = err
			logger.Error("copymd: converter init failed", "error", err)
		}
	}

	s.copier = NewCopier(cfg.Document, conv, cfg.Clipboard,
		WithSelection(cfg.Selection),
		WithSanitizer(cfg.Sanitize),
		WithMetrics(cfg.Metrics),
		WithLogger(logger),
	)

	if cfg.Page != nil && cfg.Renderer != nil {
		pc := cfg.Picker
		if pc.Logger == nil {
			pc.Logger = logger
		}
		s.picker = picker.New(cfg.Page, cfg.Renderer, s.copier, s, pc)
	}
	return s
}

// Picker returns the page's picker, or nil without a live page.
func (s *Service) Picker() *picker.Picker { return s.picker }

// Copier returns the pipeline the service copies through.
func (s *Service) Copier() *Copier { return s.copier }

// InitErr returns the converter initialization failure, if any.
func (s *Service) InitErr() error { return s.initErr }

// StartSelectionMode enters Picking. A converter that failed to initialize
// raises an alert instead and the page is left untouched.
func (s *Service) StartSelectionMode(ctx context.Context) error {
	if s.initErr != nil {
		s.notify(ctx, notify.New(notify.KindInitFailed, notify.LevelAlert, s.cfg.Messages.InitFailed), s.initErr)
		return s.initErr
	}
	if s.picker == nil {
		return ErrNoPage
	}
	return s.picker.Start(ctx)
}

// StopSelectionMode returns to Idle and restores the page.
func (s *Service) StopSelectionMode(ctx context.Context) {
	if s.picker != nil {
		s.picker.Stop(ctx)
	}
}

// Select confirms id as the selected element, as a click would.
func (s *Service) Select(ctx context.Context, id dom.NodeID) error {
	if s.picker == nil {
		return ErrNoPage
	}
	if id == dom.NoNode {
		return ErrNoSelection
	}
	return s.picker.Select(ctx, id)
}

// Dispatch forwards one page event to the picker.
func (s *Service) Dispatch(ctx context.Context, e picker.Event) {
	if s.picker != nil {
		s.picker.Dispatch(ctx, e)
	}
}

// CopySelection copies the selected element, or the page's text selection
// when no element is selected, and waits for the result.
func (s *Service) CopySelection(ctx context.Context) (string, error) {
	if s.picker != nil {
		md, err := s.picker.Copy(ctx)
		if err != nil {
			return "", unwrapPicker(err)
		}
		return md, nil
	}
	md, err := s.copier.CopyTextSelection(ctx)
	if err != nil {
		s.CopyFailed(ctx, err)
		return "", err
	}
	s.CopySucceeded(ctx, md)
	return md, nil
}

// CopyHTMLAsMarkdown converts a raw HTML string, relative to the page's base
// URL, and writes it to the clipboard. No preprocessing runs.
func (s *Service) CopyHTMLAsMarkdown(ctx context.Context, html string) (string, error) {
	base := ""
	if s.cfg.Document != nil {
		if b, err := s.cfg.Document.BaseURL(ctx); err == nil {
			base = b
		}
	}
	md, err := s.copier.CopyHTML(ctx, html, base)
	if err != nil {
		s.CopyFailed(ctx, err)
		return "", err
	}
	s.CopySucceeded(ctx, md)
	return md, nil
}

// Close leaves selection mode and closes the notifier.
func (s *Service) Close(ctx context.Context) error {
	s.StopSelectionMode(ctx)
	if s.cfg.Notifier != nil {
		return s.cfg.Notifier.Close()
	}
	return nil
}

// CopySucceeded implements picker.Reporter.
func (s *Service) CopySucceeded(ctx context.Context, md string) {
	n := notify.New(notify.KindCopied, notify.LevelSuccess, s.cfg.Messages.Copied)
	n.Markdown = md
	s.notify(ctx, n, nil)
}

// CopyFailed implements picker.Reporter.
func (s *Service) CopyFailed(ctx context.Context, err error) {
	s.notify(ctx, noticeFor(err, s.cfg.Messages), err)
}

func noticeFor(err error, m Messages) notify.Notice {
	var (
		clipErr *ClipboardError
		initErr *InitializationError
	)
	switch {
	case errors.Is(err, ErrNoSelection):
		return notify.New(notify.KindNoSelection, notify.LevelInfo, m.NoSelection)
	case errors.As(err, &initErr):
		return notify.New(notify.KindInitFailed, notify.LevelAlert, m.InitFailed)
	case errors.As(err, &clipErr):
		return notify.New(notify.KindClipboardFailed, notify.LevelError, m.ClipboardFailed)
	default:
		return notify.New(notify.KindConversionFailed, notify.LevelError, m.ConversionFailed)
	}
}

func (s *Service) notify(ctx context.Context, n notify.Notice, cause error) {
	n.Page = s.cfg.PageID
	if cause != nil {
		n.Error = cause.Error()
	}
	s.cfg.Metrics.RecordNotice(string(n.Kind))
	if s.cfg.Notifier == nil {
		return
	}
	if err := s.cfg.Notifier.Notify(context.WithoutCancel(ctx), n); err != nil {
		s.logger.Warn("copymd: notice not delivered", "kind", n.Kind, "error", err)
	}
}

// unwrapPicker strips the picker's wrapping so callers match the copy
// error itself.
func unwrapPicker(err error) error {
	if u := errors.Unwrap(err); u != nil {
		return u
	}
	return err
}
