package fetcher

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// minText is the visible text a server-rendered page is expected to carry.
const minText = 200

var appShells = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
	"<noscript>you need to enable javascript",
	"<noscript>enable javascript",
}

// IsSufficient guesses whether a static page already carries its content,
// from the share of visible text and the usual single-page-app shells.
func IsSufficient(body []byte) bool {
	if len(body) < 256 {
		return false
	}
	lower := bytes.ToLower(body)
	for _, shell := range appShells {
		if bytes.Contains(lower, []byte(shell)) {
			return false
		}
	}
	text := visibleTextLen(body)
	return text >= minText && float64(text)/float64(len(body)) >= 0.10
}

func visibleTextLen(body []byte) int {
	z := html.NewTokenizer(bytes.NewReader(body))
	skip := 0
	n := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return n
		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style || a == atom.Noscript || a == atom.Template {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); (a == atom.Script || a == atom.Style || a == atom.Noscript || a == atom.Template) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				n += len(strings.TrimSpace(string(z.Text())))
			}
		}
	}
}
