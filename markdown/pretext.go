package markdown

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/copymd/dom"
)

// preText concatenates the text below a <pre> in document order. Subtrees
// marked skip are dropped. An element marked line-break is followed by a
// newline: always for <br>, otherwise only when the element produced text
// that does not already end in one.
func preText(pre *html.Node) string {
	type frame struct {
		n     *html.Node
		exit  bool
		start int
	}
	var b strings.Builder
	stack := []frame{{n: pre}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.exit {
			if f.n.Data == "br" {
				b.WriteByte('\n')
				continue
			}
			own := b.String()[f.start:]
			if own != "" && !strings.HasSuffix(own, "\n") {
				b.WriteByte('\n')
			}
			continue
		}

		switch f.n.Type {
		case html.TextNode:
			b.WriteString(f.n.Data)
			continue
		case html.ElementNode:
		default:
			continue
		}
		if hasAttr(f.n, dom.AttrSkip) {
			continue
		}
		if hasAttr(f.n, dom.AttrLineBreak) {
			stack = append(stack, frame{n: f.n, exit: true, start: b.Len()})
		}
		for c := f.n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, frame{n: c})
		}
	}
	return b.String()
}
