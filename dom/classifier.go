package dom

import "strings"

// nonContentTags never produce content and are never hover targets.
var nonContentTags = map[string]bool{
	"SCRIPT":   true,
	"STYLE":    true,
	"HEAD":     true,
	"NOSCRIPT": true,
	"META":     true,
	"LINK":     true,
}

// IsNonContentTag reports whether tag belongs to the non-content set.
func IsNonContentTag(tag string) bool {
	return nonContentTags[strings.ToUpper(tag)]
}

// IsStyleHidden reports the computed-style invisibility rule:
// display:none, visibility:hidden, opacity:0, or the fixed-position
// full-clip idiom used to hide content without display:none.
func IsStyleHidden(s Style) bool {
	if s.Display == "none" || s.Visibility == "hidden" || s.OpacityZero() {
		return true
	}
	return s.Position == "fixed" && normalizeClip(s.ClipPath) == "inset(100%)"
}

func normalizeClip(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), "")
}

// FailsGeometry reports the zero-size rule. A zero-size element is still
// acceptable when it has child elements (a wrapper around visible
// children), except IMG which is rejected at zero size regardless.
func FailsGeometry(n *Node) bool {
	if !n.Rect.Empty() {
		return false
	}
	return n.TagIs("IMG") || n.ChildElements == 0
}

// IsHoverable decides whether n may receive the picking highlight. The
// rules run in order and the first failing one rejects the node.
func IsHoverable(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Type {
	case TextNode:
		return true
	case ElementNode:
	default:
		return false
	}
	if IsNonContentTag(n.Tag) {
		return false
	}
	if IsStyleHidden(n.Style) {
		return false
	}
	if FailsGeometry(n) {
		return false
	}
	return UserSelectValue(n) != "none"
}

// UserSelectValue returns the raw computed user-select value of an element,
// or "" for anything that is not an element.
func UserSelectValue(n *Node) string {
	if !n.IsElement() {
		return ""
	}
	return strings.TrimSpace(n.Style.UserSelect)
}
