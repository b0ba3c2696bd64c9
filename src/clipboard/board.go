package clipboard

import (
	"bytes"
	"slices"
)

// Type identifiers used by the portable backends. The macOS backend records
// whatever UTIs the pasteboard carries.
const (
	TypeText  = "public.utf8-plain-text"
	TypeImage = "public.png"
)

// Representation is one (type, bytes) flavour of a clipboard item.
type Representation struct {
	Type string
	Data []byte
}

// Item is one clipboard item with all of its representations, in order.
type Item struct {
	Representations []Representation
}

// Snapshot is the full clipboard state at one instant.
type Snapshot struct {
	Items       []Item
	ChangeCount int64
}

// Text returns the first plain-text representation in the snapshot.
func (s Snapshot) Text() string {
	for _, it := range s.Items {
		for _, r := range it.Representations {
			if r.Type == TypeText {
				return string(r.Data)
			}
		}
	}
	return ""
}

// Equal compares content only; change counters are ignored.
func (s Snapshot) Equal(o Snapshot) bool {
	return slices.EqualFunc(s.Items, o.Items, func(a, b Item) bool {
		return slices.EqualFunc(a.Representations, b.Representations, func(x, y Representation) bool {
			return x.Type == y.Type && bytes.Equal(x.Data, y.Data)
		})
	})
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{ChangeCount: s.ChangeCount, Items: make([]Item, 0, len(s.Items))}
	for _, it := range s.Items {
		reps := make([]Representation, 0, len(it.Representations))
		for _, r := range it.Representations {
			reps = append(reps, Representation{Type: r.Type, Data: bytes.Clone(r.Data)})
		}
		out.Items = append(out.Items, Item{Representations: reps})
	}
	return out
}

// Board is the clipboard as seen by the capture code.
type Board interface {
	// Snapshot captures every item and representation plus the counter.
	Snapshot() (Snapshot, error)
	// Restore clears the clipboard and rewrites it from s.
	Restore(s Snapshot) error
	// ChangeCount increases on every content mutation.
	ChangeCount() int64
	// Text returns the current plain-text content, or "".
	Text() string
}
