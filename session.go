package copymd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/copymd/clipboard"
	"github.com/hazyhaar/copymd/internal/browser"
	"github.com/hazyhaar/copymd/internal/notify"
	"github.com/hazyhaar/copymd/picker"
)

// SessionConfig configures a live page session.
type SessionConfig struct {
	// Clipboard receives copies. When nil, ClipboardBackend picks one.
	Clipboard clipboard.Writer
	// ClipboardBackend is page, system, none or auto (page, then system).
	ClipboardBackend string
	// Sinks receive notices in addition to the in-page toast.
	Sinks []notify.Sink
	// NoToasts turns the in-page toast off.
	NoToasts bool
	// OnCopy is called with the Markdown of every successful copy.
	OnCopy   func(md string)
	Messages Messages
	Picker   picker.Config
}

// Session is one browser tab driven by a Service. Page events flow from the
// bridge to the picker until Close.
type Session struct {
	ID      string
	URL     string
	Opened  time.Time
	Tab     *browser.Tab
	Service *Service

	engine *Engine
	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger

	mu     sync.Mutex
	last   string
	closed bool
}

// OpenSession opens pageURL in a tab and wires a Service to it. The
// session outlives ctx; end it with Close.
func (e *Engine) OpenSession(ctx context.Context, pageURL string, cfg SessionConfig) (*Session, error) {
	if e.cfg.Browser == nil {
		return nil, ErrNoBrowser
	}
	if _, err := e.cfg.Browser.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("copymd: %w", err)
	}
	tab, err := browser.OpenTab(ctx, e.cfg.Browser, pageURL)
	if err != nil {
		return nil, fmt.Errorf("copymd: %w", err)
	}
	e.cfg.Metrics.PageOpened()

	s := &Session{
		ID:     tab.ID,
		URL:    pageURL,
		Opened: time.Now(),
		Tab:    tab,
		engine: e,
		done:   make(chan struct{}),
		logger: e.cfg.Logger.With("page", tab.ID),
	}

	router := notify.NewRouter(s.logger)
	if !cfg.NoToasts {
		router.Add(browser.ToastSink{Bridge: tab.Bridge})
	}
	for _, sink := range cfg.Sinks {
		router.Add(sink)
	}
	router.Add(notify.NewCallback(s.onNotice(cfg.OnCopy)))

	clip := cfg.Clipboard
	if clip == nil {
		clip = pageClipboard(cfg.ClipboardBackend, tab.Bridge)
	}

	conv, _ := e.Converter()
	s.Service = NewService(ServiceConfig{
		PageID:          tab.ID,
		Page:            tab.Bridge,
		Renderer:        tab.Bridge,
		Document:        tab.Bridge,
		Selection:       tab.Bridge,
		Clipboard:       clip,
		Notifier:        router,
		Converter:       conv,
		MarkdownOptions: e.cfg.MarkdownOptions,
		Sanitize:        e.sanitize,
		Messages:        cfg.Messages,
		Picker:          cfg.Picker,
		Metrics:         e.cfg.Metrics,
		Logger:          e.cfg.Logger,
	})

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go func() {
		defer close(s.done)
		tab.Bridge.Run(runCtx, s.Service.Dispatch)
	}()
	s.logger.Info("copymd: session opened", "url", pageURL)
	return s, nil
}

func pageClipboard(backend string, b *browser.Bridge) clipboard.Writer {
	page := clipboard.Func{Name: "page", Fn: b.WriteClipboard}
	switch backend {
	case "page":
		return page
	case "system":
		return clipboard.System{}
	case "none":
		return nil
	}
	return clipboard.Fallback{page, clipboard.System{}}
}

func (s *Session) onNotice(onCopy func(string)) notify.Func {
	return func(_ context.Context, n notify.Notice) error {
		if n.Kind != notify.KindCopied {
			return nil
		}
		s.mu.Lock()
		s.last = n.Markdown
		s.mu.Unlock()
		if onCopy != nil {
			onCopy(n.Markdown)
		}
		return nil
	}
}

// Start enters selection mode on the page.
func (s *Session) Start(ctx context.Context) error {
	return s.Service.StartSelectionMode(ctx)
}

// SelectSelector selects the first element matching a CSS selector, as if
// the user had clicked it.
func (s *Session) SelectSelector(ctx context.Context, selector string) error {
	id, err := s.Tab.Bridge.Select(ctx, selector)
	if err != nil {
		return fmt.Errorf("copymd: select %q: %w", selector, err)
	}
	if err := s.Service.Select(ctx, id); err != nil {
		return fmt.Errorf("%w: %q", err, selector)
	}
	return nil
}

// Copy copies the current selection and waits for the Markdown.
func (s *Session) Copy(ctx context.Context) (string, error) {
	return s.Service.CopySelection(ctx)
}

// Last returns the Markdown of the most recent successful copy.
func (s *Session) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Done is closed once the event loop has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close restores the page, stops the event loop and closes the tab. It is
// safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.Service.Close(ctx); err != nil {
		s.logger.Debug("copymd: close notifier", "error", err)
	}
	if err := s.Tab.Bridge.Reset(ctx); err != nil {
		s.logger.Debug("copymd: reset bridge", "error", err)
	}
	s.cancel()
	<-s.done
	err := s.Tab.Close()
	s.engine.cfg.Metrics.PageClosed()
	s.logger.Info("copymd: session closed", "uptime", time.Since(s.Opened))
	return err
}
