package picker

import "github.com/hazyhaar/copymd/dom"

// State is the picking state.
type State int

const (
	Idle State = iota
	Picking
	Selected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Picking:
		return "picking"
	case Selected:
		return "selected"
	}
	return "unknown"
}

// EventKind enumerates the page events the picker reacts to.
type EventKind int

const (
	MouseOver EventKind = iota + 1
	MouseOut
	Click
	KeyDown
	OutsideClick
	Scroll
	Resize
	ToolbarAction
)

var eventKindNames = map[EventKind]string{
	MouseOver:     "mouseover",
	MouseOut:      "mouseout",
	Click:         "click",
	KeyDown:       "keydown",
	OutsideClick:  "outsideclick",
	Scroll:        "scroll",
	Resize:        "resize",
	ToolbarAction: "toolbar",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseEventKind maps a bridge event name back to its kind.
func ParseEventKind(s string) (EventKind, bool) {
	for k, name := range eventKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Action is a toolbar button.
type Action string

const (
	ActionCopy   Action = "copy"
	ActionRepick Action = "repick"
	ActionCancel Action = "cancel"
)

// Event is one page event, already resolved to node identities.
type Event struct {
	Kind EventKind `json:"kind"`
	// Target is the event target, NoNode when it is outside the document.
	Target dom.NodeID `json:"target"`
	// Related is the mouseout relatedTarget.
	Related dom.NodeID `json:"related"`
	// InToolbar reports that Target lies inside a toolbar or toast.
	InToolbar bool `json:"in_toolbar"`
	// RelatedInToolbar reports the same for Related.
	RelatedInToolbar bool   `json:"related_in_toolbar"`
	Key              string `json:"key,omitempty"`
	Action           Action `json:"action,omitempty"`
	// ToolbarID identifies the toolbar that emitted a ToolbarAction.
	ToolbarID string `json:"toolbar_id,omitempty"`
}

// Listener is a page listener the picker attaches and detaches.
type Listener int

const (
	ListenMouseOver Listener = iota + 1
	ListenMouseOut
	ListenKeyDown
	ListenClick
	ListenOutsideClick
	ListenScroll
	ListenResize
)

var listenerNames = map[Listener]string{
	ListenMouseOver:    "mouseover",
	ListenMouseOut:     "mouseout",
	ListenKeyDown:      "keydown",
	ListenClick:        "click",
	ListenOutsideClick: "outsideclick",
	ListenScroll:       "scroll",
	ListenResize:       "resize",
}

func (l Listener) String() string {
	if s, ok := listenerNames[l]; ok {
		return s
	}
	return "unknown"
}

// AllListeners lists every listener in attach order.
var AllListeners = []Listener{
	ListenMouseOver, ListenMouseOut, ListenKeyDown, ListenClick,
	ListenOutsideClick, ListenScroll, ListenResize,
}
