package accessibility

// Node is one element of a MemTree.
type Node struct {
	Name     string
	Attrs    map[string]any
	Children []*Node
	// Attributed answers AXAttributedStringForRange queries.
	Attributed map[Range]string
}

// MemTree is an in-memory Tree. The system-wide root is synthesised from
// Focused and Window.
type MemTree struct {
	Focused *Node
	Window  *Node

	// Extracted records, in visiting order, every node queried for its
	// selected text.
	Extracted []string
	Closed    bool

	root *Node
}

// Opener returns an Opener handing out t on every call.
func (t *MemTree) Opener() Opener {
	return func() (Tree, error) { return t, nil }
}

func (t *MemTree) SystemWide() Element {
	t.root = &Node{Name: "system-wide", Attrs: map[string]any{}}
	if t.Focused != nil {
		t.root.Attrs[AttrFocusedUIElement] = t.Focused
	}
	if t.Window != nil {
		t.root.Attrs[AttrFocusedWindow] = t.Window
	}
	return t.root
}

func (t *MemTree) Attribute(el Element, name string) (any, bool) {
	n, ok := el.(*Node)
	if !ok || n == nil {
		return nil, false
	}
	if name == AttrSelectedText && n != t.root {
		t.Extracted = append(t.Extracted, n.Name)
	}
	v, ok := n.Attrs[name]
	if !ok {
		return nil, false
	}
	if child, isNode := v.(*Node); isNode {
		return Element(child), true
	}
	return v, true
}

func (t *MemTree) ParameterizedAttribute(el Element, name string, param any) (any, bool) {
	n, ok := el.(*Node)
	if !ok || n == nil || name != ParamAttributedStringForRange {
		return nil, false
	}
	rg, ok := param.(Range)
	if !ok {
		return nil, false
	}
	s, ok := n.Attributed[rg]
	return s, ok
}

func (t *MemTree) Children(el Element) []Element {
	n, ok := el.(*Node)
	if !ok || n == nil {
		return nil
	}
	out := make([]Element, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c)
	}
	return out
}

func (t *MemTree) Close() error {
	t.Closed = true
	return nil
}
