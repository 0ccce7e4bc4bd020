package copymd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/copymd/kit"
	"github.com/hazyhaar/copymd/picker"
	"github.com/hazyhaar/copymd/shield"
)

// ServerConfig configures the HTTP control API.
type ServerConfig struct {
	// MaxBody bounds request bodies. Default: 10 MiB.
	MaxBody int64
	// MaxPages bounds concurrently open pages. Default: 8.
	MaxPages int
	// Session is the template for every page opened through the API.
	Session SessionConfig
	Logger  *slog.Logger
}

// Server is the HTTP control API over an Engine and its open pages.
type Server struct {
	engine  *Engine
	cfg     ServerConfig
	logger  *slog.Logger
	convert kit.Endpoint

	mu      sync.Mutex
	pages   map[string]*Session
	session SessionConfig
}

// NewServer builds the control API.
func NewServer(e *Engine, cfg ServerConfig) *Server {
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = 10 << 20
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 8
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		engine:  e,
		cfg:     cfg,
		logger:  cfg.Logger,
		convert: kit.Chain(kit.Recover(), kit.Logging(cfg.Logger, "convert"))(e.ConvertEndpoint()),
		pages:   make(map[string]*Session),
		session: cfg.Session,
	}
}

// SetSessionConfig replaces the template for pages opened from now on.
func (s *Server) SetSessionConfig(cfg SessionConfig) {
	s.mu.Lock()
	s.session = cfg
	s.mu.Unlock()
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(s.cfg.MaxBody) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		n := len(s.pages)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "pages": n})
	})
	r.Handle("/metrics", s.engine.Metrics().Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Route("/pages", func(r chi.Router) {
			r.Get("/", s.handleListPages)
			r.Post("/", s.handleOpenPage)
			r.Post("/{id}/copy", s.handleCopy)
			r.Delete("/{id}", s.handleClosePage)
		})
	})
	return r
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	resp, err := s.convert(r.Context(), &req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// OpenPageRequest opens a live page. With a selector the matching element
// is selected at once; otherwise Pick starts selection mode for a user.
type OpenPageRequest struct {
	URL      string `json:"url"`
	Selector string `json:"selector,omitempty"`
	Pick     bool   `json:"pick,omitempty"`
}

// PageInfo describes an open page.
type PageInfo struct {
	ID     string    `json:"id"`
	URL    string    `json:"url"`
	Opened time.Time `json:"opened"`
	State  string    `json:"state,omitempty"`
}

func (s *Server) handleOpenPage(w http.ResponseWriter, r *http.Request) {
	var req OpenPageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: url is required", ErrInvalidRequest))
		return
	}

	s.mu.Lock()
	full := len(s.pages) >= s.cfg.MaxPages
	tmpl := s.session
	s.mu.Unlock()
	if full {
		writeError(w, http.StatusTooManyRequests, ErrTooManyPages)
		return
	}

	ctx := r.Context()
	sess, err := s.engine.OpenSession(ctx, req.URL, tmpl)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	ctx = kit.WithPageID(ctx, sess.ID)

	switch {
	case req.Selector != "":
		err = sess.SelectSelector(ctx, req.Selector)
	case req.Pick:
		err = sess.Start(ctx)
	}
	if err != nil {
		_ = sess.Close(context.WithoutCancel(ctx))
		writeError(w, statusFor(err), err)
		return
	}

	s.mu.Lock()
	s.pages[sess.ID] = sess
	s.mu.Unlock()
	shield.GetLogger(ctx).Info("copymd: page opened", "page", sess.ID, "url", req.URL)
	writeJSON(w, http.StatusCreated, pageInfo(sess))
}

func (s *Server) handleListPages(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]PageInfo, 0, len(s.pages))
	for _, sess := range s.pages {
		out = append(out, pageInfo(sess))
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Opened.Before(out[j].Opened) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	sess, err := s.page(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	ctx := kit.WithPageID(r.Context(), sess.ID)
	md, err := sess.Copy(ctx)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, &ConvertResponse{Markdown: md})
}

func (s *Server) handleClosePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	sess, ok := s.pages[id]
	delete(s.pages, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", ErrNoPage, id))
		return
	}
	if err := sess.Close(r.Context()); err != nil {
		shield.GetLogger(r.Context()).Warn("copymd: close page", "page", id, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) page(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPage, id)
	}
	return sess, nil
}

// Close closes every open page.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	pages := s.pages
	s.pages = make(map[string]*Session)
	s.mu.Unlock()

	var errs []error
	for _, sess := range pages {
		errs = append(errs, sess.Close(ctx))
	}
	return errors.Join(errs...)
}

func pageInfo(sess *Session) PageInfo {
	info := PageInfo{ID: sess.ID, URL: sess.URL, Opened: sess.Opened}
	if p := sess.Service.Picker(); p != nil {
		info.State = p.State().String()
	}
	return info
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func statusFor(err error) int {
	var (
		tooBig  *http.MaxBytesError
		initErr *InitializationError
		convErr *ConversionError
	)
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoPage):
		return http.StatusNotFound
	case errors.Is(err, ErrTooManyPages):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNoSelection), errors.Is(err, picker.ErrNoNode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNoBrowser):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrFetch):
		return http.StatusBadGateway
	case errors.As(err, &initErr):
		return http.StatusInternalServerError
	case errors.As(err, &convErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
