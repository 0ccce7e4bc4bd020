package dom

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Marker is a transient annotation written onto a node before conversion.
type Marker uint8

const (
	MarkSkip Marker = iota + 1
	MarkInvisible
	MarkLineBreak
)

const attrPrefix = "data-copy-as-markdown-"

// Marker attribute names.
const (
	AttrSkip      = attrPrefix + "skip"
	AttrInvisible = attrPrefix + "invisible"
	AttrLineBreak = attrPrefix + "linebreak"
)

// Markers lists every marker kind, in attribute cleanup order.
var Markers = []Marker{MarkSkip, MarkInvisible, MarkLineBreak}

// Attr returns the data attribute that carries m.
func (m Marker) Attr() string {
	switch m {
	case MarkSkip:
		return AttrSkip
	case MarkInvisible:
		return AttrInvisible
	case MarkLineBreak:
		return AttrLineBreak
	}
	return ""
}

func (m Marker) String() string {
	switch m {
	case MarkSkip:
		return "skip"
	case MarkInvisible:
		return "invisible"
	case MarkLineBreak:
		return "linebreak"
	}
	return fmt.Sprintf("marker(%d)", uint8(m))
}

// IsMarkerAttr reports whether name is one of the marker attributes.
func IsMarkerAttr(name string) bool {
	return name == AttrSkip || name == AttrInvisible || name == AttrLineBreak
}

// Mark pairs a node with the marker it receives.
type Mark struct {
	Node   NodeID `json:"node"`
	Marker Marker `json:"marker"`
}

var lineBreakDisplays = map[string]bool{
	"block":              true,
	"flex":               true,
	"grid":               true,
	"table":              true,
	"list-item":          true,
	"table-caption":      true,
	"table-row-group":    true,
	"table-header-group": true,
	"table-footer-group": true,
	"table-row":          true,
	"table-cell":         true,
}

var lineBreakTags = map[string]bool{
	"BR": true, "P": true, "DIV": true, "LI": true, "PRE": true,
	"H1": true, "H2": true, "H3": true, "H4": true, "H5": true, "H6": true,
}

// markFor classifies one element. A skip or invisible mark stops the walk
// at this node; a line-break mark (or none) lets it descend.
func markFor(n *Node) (m Marker, descend bool) {
	if UserSelectValue(n) == "none" {
		return MarkSkip, false
	}
	if IsNonContentTag(n.Tag) || IsStyleHidden(n.Style) || FailsGeometry(n) {
		return MarkInvisible, false
	}
	if lineBreakDisplays[n.Style.Display] || lineBreakTags[strings.ToUpper(n.Tag)] {
		return MarkLineBreak, true
	}
	return 0, true
}

// ComputeMarks walks the element snapshot rooted at root in pre-order and
// returns the markers to apply. It uses an explicit stack so that
// pathologically deep pages cannot exhaust the goroutine stack.
func ComputeMarks(root *Node) []Mark {
	if root == nil {
		return nil
	}
	var marks []Mark
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !n.IsElement() {
			continue
		}
		m, descend := markFor(n)
		if m != 0 {
			marks = append(marks, Mark{Node: n.ID, Marker: m})
		}
		if !descend {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return marks
}

// Document is the mutable document preprocessing runs against. The live
// browser page and the static parsed document both implement it.
type Document interface {
	// Snapshot returns root and all of its element descendants with their
	// computed style and geometry.
	Snapshot(ctx context.Context, root NodeID) (*Node, error)
	// SetMarkers writes marker attributes onto the given nodes.
	SetMarkers(ctx context.Context, marks []Mark) error
	// RemoveMarkers strips every marker attribute from root and its
	// descendants.
	RemoveMarkers(ctx context.Context, root NodeID) error
	// OuterHTML serializes a node, markers included.
	OuterHTML(ctx context.Context, id NodeID) (string, error)
	// BaseURL returns the document base used to resolve relative URLs.
	BaseURL(ctx context.Context) (string, error)
}

// ErrNoRoot is returned when preprocessing is asked to run on NoNode.
var ErrNoRoot = errors.New("dom: no root node")

// Preprocess annotates the subtree at root with transient markers. Callers
// must pair it with RemoveMarkers, including when Preprocess itself fails
// part way through.
func Preprocess(ctx context.Context, doc Document, root NodeID) error {
	if root == NoNode {
		return ErrNoRoot
	}
	snap, err := doc.Snapshot(ctx, root)
	if err != nil {
		return fmt.Errorf("dom: preprocess: snapshot: %w", err)
	}
	marks := ComputeMarks(snap)
	if len(marks) == 0 {
		return nil
	}
	if err := doc.SetMarkers(ctx, marks); err != nil {
		return fmt.Errorf("dom: preprocess: set markers: %w", err)
	}
	return nil
}

// RemoveMarkers is the symmetric cleanup of Preprocess.
func RemoveMarkers(ctx context.Context, doc Document, root NodeID) error {
	if root == NoNode {
		return nil
	}
	if err := doc.RemoveMarkers(ctx, root); err != nil {
		return fmt.Errorf("dom: remove markers: %w", err)
	}
	return nil
}
