package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"select-translate/src/clipboard"
)

// keys simulates the foreground app reacting to the copy shortcut.
type keys struct {
	mu    sync.Mutex
	taps  int
	onTap func(n int)
	err   error
}

func (k *keys) Tap(string, ...string) error {
	k.mu.Lock()
	k.taps++
	n := k.taps
	k.mu.Unlock()
	if k.onTap != nil {
		k.onTap(n)
	}
	return k.err
}

type sleepLog struct {
	mu    sync.Mutex
	waits []time.Duration
	fail  func(call int) error
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	n := len(s.waits)
	s.mu.Unlock()
	if s.fail != nil {
		if err := s.fail(n); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (s *sleepLog) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.waits {
		if w == d {
			n++
		}
	}
	return n
}

func userClipboard() []clipboard.Item {
	return []clipboard.Item{
		{Representations: []clipboard.Representation{
			{Type: clipboard.TypeText, Data: []byte("user text")},
			{Type: "public.html", Data: []byte("<b>user text</b>")},
		}},
		{Representations: []clipboard.Representation{
			{Type: clipboard.TypeImage, Data: []byte{0x89, 'P', 'N', 'G'}},
		}},
	}
}

func TestFallbackReturnsCopiedSelectionAndRestores(t *testing.T) {
	board := clipboard.NewMemory("")
	board.SetItems(userClipboard())
	before, _ := board.Snapshot()

	k := &keys{onTap: func(int) { board.SetText("selected words") }}
	s := &sleepLog{}
	f := NewFallback(board, k, WithSleeper(s.sleep))

	text, err := f.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "selected words", text)
	assert.Equal(t, 2, k.taps)

	after, _ := board.Snapshot()
	assert.True(t, before.Equal(after), "clipboard content must be restored")
}

func TestFallbackTimeoutPollsExactlyBudget(t *testing.T) {
	board := clipboard.NewMemory("stale")
	s := &sleepLog{}
	f := NewFallback(board, &keys{}, WithSleeper(s.sleep))

	text, err := f.Capture(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, DefaultTiming.Polls, s.count(DefaultTiming.PollInterval))
	assert.Equal(t, 18, s.count(250*time.Millisecond))
	assert.Equal(t, "stale", board.Text())
}

func TestFallbackRestoresOnEveryPath(t *testing.T) {
	cancelled := errors.New("stop")
	tests := []struct {
		name    string
		keys    func(b *clipboard.Memory) *keys
		fail    func(call int) error
		wantErr error
	}{
		{
			name: "synthesizer error",
			keys: func(*clipboard.Memory) *keys { return &keys{err: errors.New("no event tap")} },
		},
		{
			name: "cancelled while polling",
			keys: func(*clipboard.Memory) *keys { return &keys{} },
			fail: func(call int) error {
				if call == 4 {
					return cancelled
				}
				return nil
			},
			wantErr: cancelled,
		},
		{
			name: "cancelled after the copy landed",
			keys: func(b *clipboard.Memory) *keys {
				return &keys{onTap: func(int) { b.SetText("half copied") }}
			},
			fail: func(call int) error {
				if call == 3 {
					return cancelled
				}
				return nil
			},
			wantErr: cancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := clipboard.NewMemory("")
			board.SetItems(userClipboard())
			before, _ := board.Snapshot()

			s := &sleepLog{fail: tt.fail}
			f := NewFallback(board, tt.keys(board), WithSleeper(s.sleep))
			_, err := f.Capture(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			after, _ := board.Snapshot()
			assert.True(t, before.Equal(after), "clipboard content must be restored")
		})
	}
}

func TestFallbackRestoresOnPanic(t *testing.T) {
	board := clipboard.NewMemory("keep me")
	k := &keys{onTap: func(int) {
		board.SetText("partial")
		panic("synthesizer crashed")
	}}
	f := NewFallback(board, k, WithSleeper((&sleepLog{}).sleep))

	assert.Panics(t, func() { _, _ = f.Capture(context.Background()) })
	assert.Equal(t, "keep me", board.Text())
}

func TestFallbackEmptyClipboardRestoredEmpty(t *testing.T) {
	board := clipboard.NewMemory("")
	k := &keys{onTap: func(int) { board.SetText("copied") }}
	f := NewFallback(board, k, WithSleeper((&sleepLog{}).sleep))

	text, err := f.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "copied", text)
	assert.Empty(t, board.Text())
}

func TestFallbackIgnoresCounterBumpWithoutText(t *testing.T) {
	board := clipboard.NewMemory("x")
	k := &keys{onTap: func(int) {
		board.SetItems([]clipboard.Item{{Representations: []clipboard.Representation{
			{Type: clipboard.TypeImage, Data: []byte{1}},
		}}})
	}}
	f := NewFallback(board, k, WithSleeper((&sleepLog{}).sleep))

	text, err := f.Capture(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, "x", board.Text())
}

// cycleBoard records how many snapshot/restore cycles are open at once.
type cycleBoard struct {
	*clipboard.Memory
	mu      sync.Mutex
	open    int
	maxOpen int
}

func (b *cycleBoard) Snapshot() (clipboard.Snapshot, error) {
	b.mu.Lock()
	b.open++
	b.maxOpen = max(b.maxOpen, b.open)
	b.mu.Unlock()
	return b.Memory.Snapshot()
}

func (b *cycleBoard) Restore(s clipboard.Snapshot) error {
	b.mu.Lock()
	b.open--
	b.mu.Unlock()
	return b.Memory.Restore(s)
}

func TestConcurrentFallbacksSerializeAndRestoreUserClipboard(t *testing.T) {
	board := &cycleBoard{Memory: clipboard.NewMemory("")}
	board.SetItems(userClipboard())
	before, _ := board.Memory.Snapshot()

	k := &keys{onTap: func(int) { board.SetText("selection") }}
	yield := func(ctx context.Context, _ time.Duration) error {
		time.Sleep(time.Millisecond)
		return ctx.Err()
	}
	f := NewFallback(board, k, WithSleeper(yield))

	const n = 20
	var wg sync.WaitGroup
	texts := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := f.Capture(context.Background())
			assert.NoError(t, err)
			texts[i] = text
		}()
	}
	wg.Wait()

	for _, text := range texts {
		assert.Equal(t, "selection", text)
	}
	assert.Equal(t, 1, board.maxOpen, "cycles must not overlap")
	after, _ := board.Memory.Snapshot()
	assert.True(t, before.Equal(after), "user clipboard must survive concurrent captures")
}
