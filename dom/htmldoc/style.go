package htmldoc

import (
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/copymd/dom"
)

// Without a layout engine the computed style is approximated from the
// element's inline style, the hidden attribute, user-agent display
// defaults and inherited visibility. Geometry is zero only when the inline
// style or the width/height attributes say so.

var defaultDisplay = map[atom.Atom]string{
	atom.Address: "block", atom.Article: "block", atom.Aside: "block",
	atom.Blockquote: "block", atom.Body: "block", atom.Dd: "block",
	atom.Details: "block", atom.Dialog: "block", atom.Div: "block",
	atom.Dl: "block", atom.Dt: "block", atom.Fieldset: "block",
	atom.Figcaption: "block", atom.Figure: "block", atom.Footer: "block",
	atom.Form: "block", atom.H1: "block", atom.H2: "block", atom.H3: "block",
	atom.H4: "block", atom.H5: "block", atom.H6: "block", atom.Header: "block",
	atom.Hgroup: "block", atom.Hr: "block", atom.Html: "block",
	atom.Main: "block", atom.Menu: "block", atom.Nav: "block", atom.Ol: "block",
	atom.P: "block", atom.Pre: "block", atom.Section: "block",
	atom.Summary: "block", atom.Ul: "block",
	atom.Li:      "list-item",
	atom.Table:   "table",
	atom.Caption: "table-caption",
	atom.Thead:   "table-header-group",
	atom.Tbody:   "table-row-group",
	atom.Tfoot:   "table-footer-group",
	atom.Tr:      "table-row",
	atom.Td:      "table-cell",
	atom.Th:      "table-cell",
	atom.Head:    "none", atom.Script: "none", atom.Style: "none",
	atom.Meta: "none", atom.Link: "none", atom.Title: "none",
	atom.Template: "none",
}

// declarations parses the inline style attribute into lower-cased
// property/value pairs. Malformed styles yield an empty map.
func declarations(n *html.Node) map[string]string {
	return parseDeclarations(attr(n, "style"))
}

// parseDeclarations needs a terminating ';': douceur drops the value of a
// final unterminated declaration.
func parseDeclarations(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !strings.HasSuffix(raw, ";") {
		raw += ";"
	}
	decls, err := parser.ParseDeclarations(raw)
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(decls))
	for _, d := range decls {
		out[strings.ToLower(strings.TrimSpace(d.Property))] = strings.ToLower(strings.TrimSpace(d.Value))
	}
	return out
}

func computeStyle(n *html.Node, parent dom.Style) dom.Style {
	decl := declarations(n)
	pick := func(prop, fallback string) string {
		if v, ok := decl[prop]; ok && v != "" {
			return v
		}
		return fallback
	}

	display := defaultDisplay[n.DataAtom]
	if display == "" {
		display = "inline"
	}
	if hasAttr(n, "hidden") {
		display = "none"
	}

	inheritedVisibility := parent.Visibility
	if inheritedVisibility == "" {
		inheritedVisibility = "visible"
	}

	userSelect := pick("user-select", "")
	if userSelect == "" {
		userSelect = pick("-webkit-user-select", "auto")
	}

	return dom.Style{
		Display:    pick("display", display),
		Visibility: pick("visibility", inheritedVisibility),
		Opacity:    pick("opacity", "1"),
		Position:   pick("position", "static"),
		ClipPath:   pick("clip-path", "none"),
		UserSelect: userSelect,
	}
}

// computeRect returns a nominal 1x1 box unless a dimension is explicitly
// zero, or the element is not rendered at all.
func computeRect(n *html.Node, s dom.Style) dom.Rect {
	if s.Display == "none" {
		return dom.Rect{}
	}
	decl := declarations(n)
	r := dom.Rect{Width: 1, Height: 1}
	if isZeroLength(decl["width"]) || isZeroLength(attr(n, "width")) {
		r.Width = 0
	}
	if isZeroLength(decl["height"]) || isZeroLength(attr(n, "height")) {
		r.Height = 0
	}
	return r
}

func isZeroLength(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, unit := range []string{"px", "em", "rem", "%", "pt", "vh", "vw"} {
		if strings.HasSuffix(v, unit) {
			v = strings.TrimSuffix(v, unit)
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f == 0
}
