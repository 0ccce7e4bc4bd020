package markdown

import (
	"regexp"

	"golang.org/x/net/html"
)

var languageClass = regexp.MustCompile(`language-(\S+)|lang-(\S+)`)

// maxLanguageAncestors bounds the upward search for a language class.
const maxLanguageAncestors = 15

// DetectLanguage returns the fence language for a <pre> element. The pre's
// own class wins, then the nearest ancestor up to <body>, then the first
// <code> descendant. A <code> descendant answers even when it has no
// language class.
func DetectLanguage(pre *html.Node) string {
	if lang := classLanguage(pre); lang != "" {
		return lang
	}

	cur := pre.Parent
	for i := 0; i < maxLanguageAncestors && cur != nil; i++ {
		if cur.Type == html.ElementNode {
			if cur.Data == "body" || cur.Data == "html" {
				break
			}
			if lang := classLanguage(cur); lang != "" {
				return lang
			}
		}
		cur = cur.Parent
	}

	if code := firstDescendant(pre, "code"); code != nil {
		return classLanguage(code)
	}
	return ""
}

func classLanguage(n *html.Node) string {
	class, _ := attr(n, "class")
	m := languageClass.FindStringSubmatch(class)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// firstDescendant returns the first element named tag below n in document
// order.
func firstDescendant(n *html.Node, tag string) *html.Node {
	var stack []*html.Node
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Type == html.ElementNode && cur.Data == tag {
			return cur
		}
		for c := cur.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return nil
}
