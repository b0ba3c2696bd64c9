package clipboard

import "sync"

// Memory is an in-process Board. Every mutation bumps the counter.
type Memory struct {
	mu    sync.Mutex
	items []Item
	count int64
}

// NewMemory returns a board holding text, or an empty board for "".
func NewMemory(text string) *Memory {
	m := &Memory{}
	if text != "" {
		m.items = textItems(text)
	}
	return m
}

func textItems(text string) []Item {
	return []Item{{Representations: []Representation{{Type: TypeText, Data: []byte(text)}}}}
}

// SetText replaces the content, as an external writer would.
func (m *Memory) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = textItems(text)
	m.count++
}

// SetItems replaces the content with explicit items.
func (m *Memory) SetItems(items []Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = Snapshot{Items: items}.clone().Items
	m.count++
}

func (m *Memory) Snapshot() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Items: m.items, ChangeCount: m.count}.clone(), nil
}

func (m *Memory) Restore(s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	m.count++
	if len(s.Items) > 0 {
		m.items = s.clone().Items
		m.count++
	}
	return nil
}

func (m *Memory) ChangeCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Items: m.items}.Text()
}
