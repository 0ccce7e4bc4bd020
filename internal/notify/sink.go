// Package notify delivers user-facing notices (copy succeeded, nothing
// selected, conversion or clipboard failures) to any number of sinks:
// the in-page toast, JSON lines on stdout, a webhook, or a Go callback.
package notify

import (
	"context"
	"time"

	"github.com/hazyhaar/copymd/idgen"
)

// Level is the severity of a notice. Toasts are styled by it.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	// LevelAlert is blocking in the page (window.alert).
	LevelAlert Level = "alert"
)

// Kind classifies a notice.
type Kind string

const (
	KindCopied           Kind = "copied"
	KindNoSelection      Kind = "no_selection"
	KindConversionFailed Kind = "conversion_failed"
	KindClipboardFailed  Kind = "clipboard_failed"
	KindInitFailed       Kind = "init_failed"
)

// Notice is one user-facing status message.
type Notice struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Level    Level     `json:"level"`
	Message  string    `json:"message"`
	Markdown string    `json:"markdown,omitempty"`
	Error    string    `json:"error,omitempty"`
	Page     string    `json:"page,omitempty"`
	Time     time.Time `json:"time"`
}

var newID = idgen.Prefixed("ntc_", idgen.NanoID(12))

// New builds a notice stamped with an ID and the current time.
func New(kind Kind, level Level, message string) Notice {
	return Notice{
		ID:      newID(),
		Kind:    kind,
		Level:   level,
		Message: message,
		Time:    time.Now().UTC(),
	}
}

// Sink is an output backend for notices.
type Sink interface {
	Notify(ctx context.Context, n Notice) error
	Close() error
}
