// Package copymd copies parts of a web page as Markdown. A Service ties the
// element picker, the preprocessing pass, the Markdown converter and a
// clipboard together for one page. An Engine runs the same pipeline on
// fetched or pasted HTML, or on a headless tab, without a user.
package copymd

import (
	"errors"

	"github.com/hazyhaar/copymd/clipboard"
	"github.com/hazyhaar/copymd/markdown"
)

var (
	// ErrNoSelection is returned when a copy is asked for with no selected
	// element and no text selection.
	ErrNoSelection = errors.New("copymd: nothing selected")
	// ErrNoPage is returned by selection-mode operations on a service that
	// has no live page.
	ErrNoPage = errors.New("copymd: no live page")
)

type (
	// ConversionError is a failure between the document and the Markdown:
	// preprocessing, serialization or the engine itself.
	ConversionError = markdown.ConversionError
	// InitializationError is a Markdown converter that could not be built.
	InitializationError = markdown.InitializationError
	// ClipboardError is a failed clipboard write.
	ClipboardError = clipboard.Error
)
