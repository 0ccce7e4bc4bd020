package copymd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/copymd/kit"
)

var (
	// ErrInvalidRequest marks a malformed API or tool request.
	ErrInvalidRequest = errors.New("copymd: invalid request")
	// ErrTooManyPages is returned when the open page limit is reached.
	ErrTooManyPages = errors.New("copymd: too many open pages")
)

// ConvertRequest asks for a one-shot conversion of pasted HTML or of a URL.
type ConvertRequest struct {
	HTML     string `json:"html,omitempty"`
	URL      string `json:"url,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	Selector string `json:"selector,omitempty"`
	Browser  bool   `json:"browser,omitempty"`
}

// Validate checks that exactly one source is set.
func (r *ConvertRequest) Validate() error {
	hasHTML := strings.TrimSpace(r.HTML) != ""
	hasURL := strings.TrimSpace(r.URL) != ""
	switch {
	case hasHTML && hasURL:
		return fmt.Errorf("%w: html and url are exclusive", ErrInvalidRequest)
	case !hasHTML && !hasURL:
		return fmt.Errorf("%w: html or url is required", ErrInvalidRequest)
	case hasHTML && r.Browser:
		return fmt.Errorf("%w: browser needs a url", ErrInvalidRequest)
	}
	return nil
}

// ConvertResponse carries the Markdown of a conversion.
type ConvertResponse struct {
	Markdown string `json:"markdown"`
}

// ConvertEndpoint serves ConvertRequest over any transport.
func (e *Engine) ConvertEndpoint() kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		r, ok := req.(*ConvertRequest)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected %T", ErrInvalidRequest, req)
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		var (
			md  string
			err error
		)
		if r.HTML != "" {
			md, err = e.ConvertHTML(ctx, r.HTML, r.BaseURL, r.Selector)
		} else {
			md, err = e.ConvertURL(ctx, r.URL, r.Selector, r.Browser)
		}
		if err != nil {
			return nil, err
		}
		return &ConvertResponse{Markdown: md}, nil
	}
}
