package gui

import (
	"context"

	"fyne.io/fyne/v2"
)

const (
	confirmTitle   = "Use clipboard?"
	confirmMessage = "No selection found. Translate the current clipboard text?"
)

// ConfirmClipboard asks on the result window and blocks the calling
// goroutine until the user answers, the result window is hidden, or ctx
// ends. It must not be called from the UI goroutine.
func (u *UI) ConfirmClipboard(ctx context.Context, text string) bool {
	answer := make(chan bool, 1)
	fyne.Do(func() {
		u.result.prompt(preview(text), func(ok bool) { answer <- ok })
	})

	select {
	case ok := <-answer:
		return ok
	case <-ctx.Done():
		fyne.Do(u.result.dismiss)
		return false
	}
}

const previewRunes = 200

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "…"
}
