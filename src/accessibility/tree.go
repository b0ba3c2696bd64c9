// Package accessibility reads the user's current text selection out of the
// platform accessibility tree of whatever application owns focus.
//
// The tree is an externally owned, read-only object graph. All access goes
// through Tree so the reader can run against MemTree in tests.
package accessibility

import "errors"

// Attribute names, matching the macOS AX vocabulary.
const (
	AttrFocusedUIElement  = "AXFocusedUIElement"
	AttrFocusedWindow     = "AXFocusedWindow"
	AttrSelectedText      = "AXSelectedText"
	AttrValue             = "AXValue"
	AttrSelectedTextRange = "AXSelectedTextRange"
	AttrChildren          = "AXChildren"

	ParamAttributedStringForRange = "AXAttributedStringForRange"
)

// ErrUnavailable is returned by an Opener when the platform exposes no tree.
var ErrUnavailable = errors.New("accessibility tree unavailable")

// Element is an opaque handle owned by the Tree that returned it.
type Element any

// Range is a selection in UTF-16 code units.
type Range struct {
	Location int
	Length   int
}

// Tree is the read-only capability over the platform tree. Attribute values
// are one of string, Range, Element or []Element; anything else is reported
// as absent by the adapter.
type Tree interface {
	// SystemWide returns the root handle used to look up focus.
	SystemWide() Element
	Attribute(el Element, name string) (any, bool)
	ParameterizedAttribute(el Element, name string, param any) (any, bool)
	Children(el Element) []Element
	// Close releases every handle the tree handed out.
	Close() error
}

// Opener opens a fresh view of the tree for one read.
type Opener func() (Tree, error)
