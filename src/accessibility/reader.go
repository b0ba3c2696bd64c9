package accessibility

import (
	"log/slog"
	"strings"
	"unicode/utf16"
)

// DefaultMaxNodes bounds each breadth-first search.
const DefaultMaxNodes = 250

type Reader struct {
	open     Opener
	maxNodes int
}

// NewReader returns a reader over trees produced by open.
func NewReader(open Opener) *Reader {
	return &Reader{open: open, maxNodes: DefaultMaxNodes}
}

// WithMaxNodes overrides the BFS cap.
func (r *Reader) WithMaxNodes(n int) *Reader {
	if n > 0 {
		r.maxNodes = n
	}
	return r
}

// Read returns the selected text of the focused element, searching its
// subtree and then the focused window's subtree when the element itself
// exposes nothing.
func (r *Reader) Read() (string, bool) {
	if r.open == nil {
		return "", false
	}
	tree, err := r.open()
	if err != nil {
		slog.Debug("accessibility: tree not opened", "err", err)
		return "", false
	}
	defer func() { _ = tree.Close() }()

	root := tree.SystemWide()
	if focused, ok := elementAttr(tree, root, AttrFocusedUIElement); ok {
		if text, ok := extract(tree, focused); ok {
			slog.Debug("accessibility: selection on focused element")
			return text, true
		}
		if text, ok := r.search(tree, focused); ok {
			slog.Debug("accessibility: selection in focused subtree")
			return text, true
		}
	}
	if window, ok := elementAttr(tree, root, AttrFocusedWindow); ok {
		if text, ok := r.search(tree, window); ok {
			slog.Debug("accessibility: selection in focused window")
			return text, true
		}
	}
	return "", false
}

func (r *Reader) search(tree Tree, root Element) (string, bool) {
	queue := []Element{root}
	visited := 0
	for len(queue) > 0 && visited < r.maxNodes {
		el := queue[0]
		queue = queue[1:]
		visited++
		if text, ok := extract(tree, el); ok {
			return text, true
		}
		queue = append(queue, tree.Children(el)...)
	}
	return "", false
}

// extract applies the three rules in priority order.
func extract(tree Tree, el Element) (string, bool) {
	if v, ok := tree.Attribute(el, AttrSelectedText); ok {
		if s, ok := v.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed, true
			}
		}
	}

	rg, hasRange := rangeAttr(tree, el, AttrSelectedTextRange)
	if hasRange {
		if v, ok := tree.Attribute(el, AttrValue); ok {
			if value, ok := v.(string); ok {
				if s, ok := sliceRange(value, rg); ok {
					return s, true
				}
			}
		}

		if v, ok := tree.ParameterizedAttribute(el, ParamAttributedStringForRange, rg); ok {
			if s, ok := v.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed, true
				}
			}
		}
	}
	return "", false
}

// sliceRange cuts value to rg, counting UTF-16 code units. The length is
// clamped to the end of the value; the offset is not.
func sliceRange(value string, rg Range) (string, bool) {
	units := utf16.Encode([]rune(value))
	if rg.Location < 0 || rg.Length <= 0 || rg.Location > len(units) {
		return "", false
	}
	end := rg.Location + min(rg.Length, len(units)-rg.Location)
	s := string(utf16.Decode(units[rg.Location:end]))
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func elementAttr(tree Tree, el Element, name string) (Element, bool) {
	v, ok := tree.Attribute(el, name)
	if !ok || v == nil {
		return nil, false
	}
	return Element(v), true
}

func rangeAttr(tree Tree, el Element, name string) (Range, bool) {
	v, ok := tree.Attribute(el, name)
	if !ok {
		return Range{}, false
	}
	rg, ok := v.(Range)
	return rg, ok
}
