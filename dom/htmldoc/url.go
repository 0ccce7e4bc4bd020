package htmldoc

import "net/url"

// resolveBase applies a <base href> to the document URL.
func resolveBase(docURL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return docURL
	}
	if docURL == "" {
		return ref.String()
	}
	u, err := url.Parse(docURL)
	if err != nil {
		return ref.String()
	}
	return u.ResolveReference(ref).String()
}
