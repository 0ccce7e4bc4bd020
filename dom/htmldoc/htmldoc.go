// Package htmldoc is a static dom.Document over a parsed HTML tree. It lets
// preprocessing and conversion run without a browser, at the cost of an
// approximated computed style (inline style, user-agent defaults, hidden
// attribute) and nominal geometry.
package htmldoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/hazyhaar/copymd/dom"
)

// ErrNoMatch is returned by Select when no element matches.
var ErrNoMatch = errors.New("htmldoc: no element matches selector")

// Document is a parsed HTML document with stable node identities.
// It is not safe for concurrent mutation.
type Document struct {
	root  *html.Node
	base  string
	ids   map[*html.Node]dom.NodeID
	nodes []*html.Node
}

// Parse reads an HTML document. baseURL is reported by BaseURL unless the
// document carries its own <base href>.
func Parse(r io.Reader, baseURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	d := &Document{root: root, base: baseURL, ids: make(map[*html.Node]dom.NodeID)}
	if href := d.baseHref(); href != "" {
		d.base = resolveBase(baseURL, href)
	}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s, baseURL string) (*Document, error) {
	return Parse(strings.NewReader(s), baseURL)
}

// ID returns the identity of n, assigning one on first use.
func (d *Document) ID(n *html.Node) dom.NodeID {
	if n == nil {
		return dom.NoNode
	}
	if id, ok := d.ids[n]; ok {
		return id
	}
	d.nodes = append(d.nodes, n)
	id := dom.NodeID(len(d.nodes))
	d.ids[n] = id
	return id
}

// Node resolves an identity back to its node.
func (d *Document) Node(id dom.NodeID) *html.Node {
	i := int(id) - 1
	if i < 0 || i >= len(d.nodes) {
		return nil
	}
	return d.nodes[i]
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the identity of <body>.
func (d *Document) Body() dom.NodeID {
	return d.ID(findElement(d.root, "body"))
}

// Select returns the first element matching a CSS selector.
func (d *Document) Select(selector string) (dom.NodeID, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return dom.NoNode, fmt.Errorf("htmldoc: select %q: %w", selector, err)
	}
	sel := goquery.NewDocumentFromNode(d.root).FindMatcher(m).First()
	if sel.Length() == 0 {
		return dom.NoNode, fmt.Errorf("%w: %q", ErrNoMatch, selector)
	}
	return d.ID(sel.Get(0)), nil
}

// Snapshot implements dom.Document.
func (d *Document) Snapshot(ctx context.Context, root dom.NodeID) (*dom.Node, error) {
	n := d.Node(root)
	if n == nil {
		return nil, fmt.Errorf("htmldoc: snapshot: unknown node %d", root)
	}

	type frame struct {
		n     *html.Node
		out   *dom.Node
		style dom.Style
	}
	top := d.inspect(n, inheritedStyle(n))
	stack := []frame{{n: n, out: top, style: top.Style}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := f.n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			child := d.inspect(c, f.style)
			f.out.Children = append(f.out.Children, child)
			stack = append(stack, frame{n: c, out: child, style: child.Style})
		}
	}
	return top, nil
}

// Inspect returns a shallow snapshot of one node.
func (d *Document) Inspect(id dom.NodeID) (*dom.Node, error) {
	n := d.Node(id)
	if n == nil {
		return nil, fmt.Errorf("htmldoc: inspect: unknown node %d", id)
	}
	return d.inspect(n, inheritedStyle(n)), nil
}

func (d *Document) inspect(n *html.Node, parent dom.Style) *dom.Node {
	out := &dom.Node{ID: d.ID(n)}
	switch n.Type {
	case html.ElementNode:
		out.Type = dom.ElementNode
		out.Tag = strings.ToUpper(n.Data)
		out.Style = computeStyle(n, parent)
		out.Rect = computeRect(n, out.Style)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out.ChildElements++
			}
		}
	case html.TextNode:
		out.Type = dom.TextNode
	case html.CommentNode:
		out.Type = dom.CommentNode
	default:
		out.Type = dom.OtherNode
	}
	return out
}

// inheritedStyle computes the style n inherits from its ancestors.
func inheritedStyle(n *html.Node) dom.Style {
	var chain []*html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			chain = append(chain, p)
		}
	}
	var s dom.Style
	for i := len(chain) - 1; i >= 0; i-- {
		s = computeStyle(chain[i], s)
	}
	return s
}

// SetMarkers implements dom.Document.
func (d *Document) SetMarkers(ctx context.Context, marks []dom.Mark) error {
	for _, m := range marks {
		n := d.Node(m.Node)
		if n == nil {
			return fmt.Errorf("htmldoc: set markers: unknown node %d", m.Node)
		}
		setAttr(n, m.Marker.Attr(), "true")
	}
	return nil
}

// RemoveMarkers implements dom.Document.
func (d *Document) RemoveMarkers(ctx context.Context, root dom.NodeID) error {
	n := d.Node(root)
	if n == nil {
		return fmt.Errorf("htmldoc: remove markers: unknown node %d", root)
	}
	stack := []*html.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Type == html.ElementNode {
			kept := cur.Attr[:0]
			for _, a := range cur.Attr {
				if !dom.IsMarkerAttr(a.Key) {
					kept = append(kept, a)
				}
			}
			cur.Attr = kept
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			stack = append(stack, c)
		}
	}
	return nil
}

// OuterHTML implements dom.Document.
func (d *Document) OuterHTML(ctx context.Context, id dom.NodeID) (string, error) {
	n := d.Node(id)
	if n == nil {
		return "", fmt.Errorf("htmldoc: outer html: unknown node %d", id)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("htmldoc: render: %w", err)
	}
	return buf.String(), nil
}

// BaseURL implements dom.Document.
func (d *Document) BaseURL(ctx context.Context) (string, error) {
	return d.base, nil
}

func (d *Document) baseHref() string {
	head := findElement(d.root, "head")
	if head == nil {
		return ""
	}
	if b := findElement(head, "base"); b != nil {
		return attr(b, "href")
	}
	return ""
}

// findElement returns the first element named tag in document order.
func findElement(root *html.Node, tag string) *html.Node {
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type == html.ElementNode && n.Data == tag {
			return n
		}
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
