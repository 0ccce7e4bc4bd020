// Package dom models the parts of a live document that element picking and
// Markdown preprocessing consult: node type, tag name, computed style and
// geometry. Nodes are snapshots; the document they came from is reached
// through the Document interface.
package dom

import (
	"strconv"
	"strings"
)

// NodeID identifies a node within one document for the lifetime of a pick
// session. The zero value is NoNode.
type NodeID int

// NoNode is the absent node (no hover target, no related target...).
const NoNode NodeID = 0

// NodeType mirrors the DOM nodeType constants that matter here.
type NodeType int

const (
	ElementNode NodeType = 1
	TextNode    NodeType = 3
	CommentNode NodeType = 8
	OtherNode   NodeType = -1
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "other"
	}
}

// Style holds the computed style properties the classifier reads.
type Style struct {
	Display    string `json:"display"`
	Visibility string `json:"visibility"`
	Opacity    string `json:"opacity"`
	Position   string `json:"position"`
	ClipPath   string `json:"clip_path"`
	UserSelect string `json:"user_select"`
}

// OpacityZero reports whether the computed opacity is 0.
func (s Style) OpacityZero() bool {
	v := strings.TrimSpace(s.Opacity)
	if v == "" {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f == 0
}

// Rect is a bounding client rectangle in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports a zero width or a zero height.
func (r Rect) Empty() bool { return r.Width == 0 || r.Height == 0 }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Node is a snapshot of one document node. Children holds element children
// only and is filled by subtree snapshots; shallow inspections leave it nil
// but still report ChildElements.
type Node struct {
	ID            NodeID   `json:"id"`
	Type          NodeType `json:"type"`
	Tag           string   `json:"tag"`
	Style         Style    `json:"style"`
	Rect          Rect     `json:"rect"`
	ChildElements int      `json:"child_elements"`
	Children      []*Node  `json:"children,omitempty"`
}

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool { return n != nil && n.Type == ElementNode }

// TagIs compares the tag name case-insensitively.
func (n *Node) TagIs(tag string) bool {
	return n != nil && strings.EqualFold(n.Tag, tag)
}
