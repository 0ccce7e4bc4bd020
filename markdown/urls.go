package markdown

import (
	"net/url"
	"strings"
)

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// isAbsoluteOrData reports URLs that image sources keep verbatim.
func isAbsoluteOrData(src string) bool {
	return hasPrefixFold(src, "http:") ||
		hasPrefixFold(src, "https:") ||
		strings.HasPrefix(src, "//") ||
		hasPrefixFold(src, "data:")
}

// isSpecialProtocol reports link targets that are never resolved.
func isSpecialProtocol(href string) bool {
	h := strings.TrimSpace(href)
	for _, p := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if hasPrefixFold(h, p) {
			return true
		}
	}
	return false
}

// resolveURL resolves ref against base. It returns ref unchanged when
// either side cannot be parsed or there is no base.
func resolveURL(base, ref string) string {
	if base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
