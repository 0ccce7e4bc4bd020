package picker

import (
	"context"

	"github.com/hazyhaar/copymd/dom"
)

// Page is the live document as the picker sees it.
type Page interface {
	// Inspect snapshots one node without its children.
	Inspect(ctx context.Context, id dom.NodeID) (*dom.Node, error)
	// ElementAtCenter returns the element under the viewport centre, or
	// NoNode.
	ElementAtCenter(ctx context.Context) (dom.NodeID, error)
	Body(ctx context.Context) (dom.NodeID, error)
	// Contains reports whether node is ancestor or a descendant of it.
	Contains(ctx context.Context, ancestor, node dom.NodeID) (bool, error)
	// InlineStyle reads inline style properties. Absent ones map to "".
	InlineStyle(ctx context.Context, id dom.NodeID, props []string) (map[string]string, error)
	// SetInlineStyle writes inline style properties. "" removes one.
	SetInlineStyle(ctx context.Context, id dom.NodeID, props map[string]string) error
	// SetPickTarget tells the page which element a click would select, so
	// the click can be swallowed synchronously. NoNode clears it.
	SetPickTarget(ctx context.Context, id dom.NodeID) error
	// Listen attaches a listener. Deferred listeners start receiving events
	// only after the current event has finished dispatching.
	Listen(ctx context.Context, l Listener, deferred bool) error
	Unlisten(ctx context.Context, l Listener) error
}

// Copier turns page content into Markdown and writes it to the clipboard.
type Copier interface {
	CopyElement(ctx context.Context, id dom.NodeID) (string, error)
	// CopyTextSelection copies the page's current text selection.
	CopyTextSelection(ctx context.Context) (string, error)
}

// Reporter receives copy outcomes.
type Reporter interface {
	CopySucceeded(ctx context.Context, markdown string)
	CopyFailed(ctx context.Context, err error)
}
