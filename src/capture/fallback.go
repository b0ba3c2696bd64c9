package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"select-translate/src/clipboard"
	"select-translate/src/input"
)

// Sleeper is a cancellable wait. Tests substitute one that returns at once.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Timing holds the waits of one synthesized-copy cycle.
type Timing struct {
	Settle       time.Duration // before the first copy
	Repeat       time.Duration // between the two copies
	PollInterval time.Duration
	Polls        int
}

// DefaultTiming gives a ≈4.5s poll budget.
var DefaultTiming = Timing{
	Settle:       200 * time.Millisecond,
	Repeat:       80 * time.Millisecond,
	PollInterval: 250 * time.Millisecond,
	Polls:        18,
}

// Fallback captures the selection by sending the copy shortcut and watching
// the clipboard change. The clipboard is restored from a snapshot before
// Capture returns, on every path.
type Fallback struct {
	board  clipboard.Board
	keys   input.Synthesizer
	chord  input.Chord
	sleep  Sleeper
	timing Timing

	// mu serialises whole cycles: two interleaved cycles would restore each
	// other's synthesized copy instead of the user's content.
	mu sync.Mutex
}

type FallbackOption func(*Fallback)

func WithSleeper(s Sleeper) FallbackOption { return func(f *Fallback) { f.sleep = s } }

func WithTiming(t Timing) FallbackOption { return func(f *Fallback) { f.timing = t } }

func WithChord(c input.Chord) FallbackOption { return func(f *Fallback) { f.chord = c } }

func NewFallback(board clipboard.Board, keys input.Synthesizer, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		board:  board,
		keys:   keys,
		chord:  input.CopyChord(),
		sleep:  Sleep,
		timing: DefaultTiming,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Capture returns the copied selection, or "" when the clipboard did not
// change within the poll budget. A timeout is not an error.
func (f *Fallback) Capture(ctx context.Context) (text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.board.Snapshot()
	if err != nil {
		return "", fmt.Errorf("snapshot clipboard: %w", err)
	}
	defer func() {
		if rerr := f.board.Restore(snap); rerr != nil {
			slog.Warn("capture: clipboard restore failed", "err", rerr)
			if err == nil {
				text, err = "", fmt.Errorf("restore clipboard: %w", rerr)
			}
		}
	}()

	if err := f.sleep(ctx, f.timing.Settle); err != nil {
		return "", err
	}
	f.sendCopy(1)
	if err := f.sleep(ctx, f.timing.Repeat); err != nil {
		return "", err
	}
	f.sendCopy(2)

	for attempt := 1; attempt <= f.timing.Polls; attempt++ {
		if err := f.sleep(ctx, f.timing.PollInterval); err != nil {
			return "", err
		}
		if f.board.ChangeCount() == snap.ChangeCount {
			continue
		}
		if current := f.board.Text(); current != "" {
			slog.Debug("capture: clipboard changed", "attempt", attempt, "chars", len(current))
			return current, nil
		}
	}
	slog.Debug("capture: clipboard unchanged", "polls", f.timing.Polls)
	return "", nil
}

// sendCopy tolerates failures: the second copy exists because the first one
// may be dropped anyway.
func (f *Fallback) sendCopy(n int) {
	if err := f.chord.Send(f.keys); err != nil {
		slog.Warn("capture: copy shortcut failed", "n", n, "err", err)
	}
}
