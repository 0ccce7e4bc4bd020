package copymd

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// NewSanitizer returns a filter for HTML that did not come from a page the
// user is looking at. It keeps what the Markdown rules read: data-*
// markers, class names for language detection, links and images.
func NewSanitizer() func(string) string {
	p := bluemonday.UGCPolicy()
	p.AllowDataAttributes()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w\s-]+$`)).Globally()
	return p.Sanitize
}
