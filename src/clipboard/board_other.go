//go:build !darwin || !cgo

package clipboard

import (
	"crypto/sha256"
	"sync"

	"golang.design/x/clipboard"
)

// systemBoard wraps golang.design/x/clipboard. The library exposes no change
// counter, so one is derived: every call that observes different content
// than the previous observation bumps it. Rewriting identical bytes is not
// detected.
type systemBoard struct {
	mu     sync.Mutex
	count  int64
	digest [sha256.Size]byte
	seen   bool
}

// NewSystem initialises the clipboard library and returns the board.
// Restore on this board writes back one representation only: text wins over
// an image, so a snapshot holding both does not round-trip exactly.
func NewSystem() (Board, error) {
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	b := &systemBoard{}
	b.observe(clipboard.Read(clipboard.FmtText), clipboard.Read(clipboard.FmtImage))
	return b, nil
}

func (b *systemBoard) observe(text, img []byte) {
	h := sha256.New()
	h.Write(text)
	h.Write([]byte{0})
	h.Write(img)
	var d [sha256.Size]byte
	copy(d[:], h.Sum(nil))
	if b.seen && d != b.digest {
		b.count++
	}
	b.digest = d
	b.seen = true
}

func (b *systemBoard) Snapshot() (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	text := clipboard.Read(clipboard.FmtText)
	img := clipboard.Read(clipboard.FmtImage)
	b.observe(text, img)

	var item Item
	if len(text) > 0 {
		item.Representations = append(item.Representations, Representation{Type: TypeText, Data: text})
	}
	if len(img) > 0 {
		item.Representations = append(item.Representations, Representation{Type: TypeImage, Data: img})
	}
	snap := Snapshot{ChangeCount: b.count}
	if len(item.Representations) > 0 {
		snap.Items = []Item{item}
	}
	return snap, nil
}

// Restore writes back a single representation: text when the snapshot had
// any, otherwise the image. An empty snapshot clears the text.
func (b *systemBoard) Restore(s Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	format, data := restorePayload(s)
	clipboard.Write(format, data)
	b.observe(clipboard.Read(clipboard.FmtText), clipboard.Read(clipboard.FmtImage))
	return nil
}

// restorePayload picks what Restore writes for s.
func restorePayload(s Snapshot) (clipboard.Format, []byte) {
	var text, img []byte
	for _, it := range s.Items {
		for _, r := range it.Representations {
			switch {
			case r.Type == TypeText && text == nil:
				text = r.Data
			case r.Type == TypeImage && img == nil:
				img = r.Data
			}
		}
	}
	switch {
	case text != nil:
		return clipboard.FmtText, text
	case img != nil:
		return clipboard.FmtImage, img
	default:
		return clipboard.FmtText, []byte{}
	}
}

func (b *systemBoard) ChangeCount() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observe(clipboard.Read(clipboard.FmtText), clipboard.Read(clipboard.FmtImage))
	return b.count
}

func (b *systemBoard) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	text := clipboard.Read(clipboard.FmtText)
	b.observe(text, clipboard.Read(clipboard.FmtImage))
	return string(text)
}
