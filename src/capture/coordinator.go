package capture

import (
	"context"
	"errors"
	"log/slog"

	"select-translate/src/permission"
)

// SelectionReader reads the selection through the accessibility tree.
type SelectionReader interface {
	Read() (string, bool)
}

// ClipboardCapturer is the synthesized-copy path.
type ClipboardCapturer interface {
	Capture(ctx context.Context) (string, error)
}

// TextSource reads the clipboard's current plain text.
type TextSource interface {
	Text() string
}

// Confirmer asks the user, synchronously, whether to translate the text that
// currently sits on the clipboard.
type Confirmer interface {
	ConfirmClipboard(ctx context.Context, text string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, text string) bool

func (f ConfirmFunc) ConfirmClipboard(ctx context.Context, text string) bool { return f(ctx, text) }

// Decline never confirms.
var Decline = ConfirmFunc(func(context.Context, string) bool { return false })

type Coordinator struct {
	gate      permission.Checker
	reader    SelectionReader
	clipboard TextSource
	fallback  ClipboardCapturer
	confirm   Confirmer
}

func NewCoordinator(gate permission.Checker, reader SelectionReader, clip TextSource, fallback ClipboardCapturer, confirm Confirmer) *Coordinator {
	if confirm == nil {
		confirm = Decline
	}
	return &Coordinator{
		gate:      gate,
		reader:    reader,
		clipboard: clip,
		fallback:  fallback,
		confirm:   confirm,
	}
}

// Capture runs one capture cycle. On failure the Result has SourceNone and
// the error is a *PermissionError, an ErrCaptureEmpty or a context error.
func (c *Coordinator) Capture(ctx context.Context) (Result, error) {
	if st := c.gate.Check(); !st.Granted() {
		slog.Info("capture: blocked by permissions", "missing", st.Missing())
		return Result{}, &PermissionError{Status: st}
	}

	if text, ok := c.reader.Read(); ok && !blank(text) {
		return Result{Text: text, Source: SourceAccessibility}, nil
	}

	baseline := c.clipboard.Text()

	copied, err := c.fallback.Capture(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		slog.Warn("capture: clipboard fallback failed", "err", err)
		copied = ""
	}
	if !blank(copied) {
		return Result{Text: copied, Source: SourceClipboardDiff}, nil
	}

	// The copy may have landed after the poll window closed. Only content
	// that differs from the pre-capture clipboard counts.
	current := c.clipboard.Text()
	if !blank(current) && current != baseline {
		slog.Info("capture: recovered late copy from clipboard")
		return Result{Text: current, Source: SourceClipboardDiff, Recovered: true}, nil
	}

	if blank(current) {
		return Result{}, ErrCaptureEmpty
	}
	if !c.confirm.ConfirmClipboard(ctx, current) {
		return Result{}, ErrFallbackDeclined
	}
	return Result{Text: current, Source: SourceClipboardFallbackConfirmed}, nil
}

// CaptureClipboard takes the clipboard text as is, for the explicit menu
// path.
func (c *Coordinator) CaptureClipboard(context.Context) (Result, error) {
	text := c.clipboard.Text()
	if blank(text) {
		return Result{}, ErrClipboardEmpty
	}
	return Result{Text: text, Source: SourceClipboard}, nil
}
