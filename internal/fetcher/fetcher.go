// Package fetcher is the browserless acquisition path: one HTTP GET whose
// body is parsed as a static document.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MaxBody caps how much of a response is read.
const MaxBody = 10 << 20

// Result is the outcome of a fetch.
type Result struct {
	// URL is the final URL after redirects.
	URL         string
	HTML        []byte
	StatusCode  int
	ContentType string
	// Sufficient reports that the page looks server-rendered; when false a
	// browser is likely to produce better output.
	Sufficient bool
}

// Fetcher performs HTTP GETs.
type Fetcher struct {
	client *http.Client
	ua     string
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.ua = ua }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		ua:     "Mozilla/5.0 (compatible; copymd/1.0)",
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch GETs pageURL. Non-2xx statuses are errors.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetcher: %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBody))
	if err != nil {
		return nil, fmt.Errorf("fetcher: read body: %w", err)
	}

	res := &Result{
		URL:         resp.Request.URL.String(),
		HTML:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Sufficient:  IsSufficient(body),
	}
	f.logger.Debug("fetcher: fetched",
		"url", res.URL, "status", resp.StatusCode,
		"size", len(body), "sufficient", res.Sufficient)
	return res, nil
}
