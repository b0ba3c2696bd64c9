package gui

import (
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// resultWindow is a floating window with the last message, closable with
// Esc, with a Copy button for the text shown.
type resultWindow struct {
	win   fyne.Window
	text  *widget.Label
	copyB *widget.Button
	copy  func(string) error
	shown string

	// An open prompt; hiding the window answers it with false.
	mu      sync.Mutex
	pending func(bool)
	dialog  dialog.Dialog
}

func newResultWindow(a fyne.App, copyFn func(string) error) *resultWindow {
	r := &resultWindow{win: a.NewWindow("Translation"), copy: copyFn}
	r.text = widget.NewLabel("")
	r.text.Wrapping = fyne.TextWrapWord
	r.copyB = widget.NewButton("Copy", r.copyShown)
	if copyFn == nil {
		r.copyB.Disable()
	}
	closeB := widget.NewButton("Close", r.hide)

	r.win.SetContent(container.NewBorder(nil,
		container.NewHBox(r.copyB, closeB), nil, nil,
		container.NewVScroll(r.text)))
	r.win.Resize(fyne.NewSize(420, 240))
	r.win.SetCloseIntercept(r.hide)
	r.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			r.hide()
		}
	})
	return r
}

// show must run on the UI goroutine.
func (r *resultWindow) show(message string) {
	r.shown = message
	r.text.SetText(message)
	r.win.Show()
	r.win.RequestFocus()
}

// prompt shows message with a Translate/Cancel dialog. answer is called
// exactly once: with the user's choice, or false when the window is hidden
// or another prompt replaces this one. Runs on the UI goroutine.
func (r *resultWindow) prompt(message string, answer func(bool)) {
	r.dismiss()
	r.show(message)
	d := dialog.NewConfirm(confirmTitle, confirmMessage, r.resolve, r.win)
	d.SetConfirmText("Translate")
	d.SetDismissText("Cancel")
	r.mu.Lock()
	r.pending = answer
	r.dialog = d
	r.mu.Unlock()
	d.Show()
}

func (r *resultWindow) resolve(ok bool) {
	r.mu.Lock()
	answer := r.pending
	r.pending = nil
	r.dialog = nil
	r.mu.Unlock()
	if answer != nil {
		answer(ok)
	}
}

// dismiss closes an open prompt, answering false.
func (r *resultWindow) dismiss() {
	r.mu.Lock()
	d := r.dialog
	r.mu.Unlock()
	r.resolve(false)
	if d != nil {
		d.Hide()
	}
}

func (r *resultWindow) hide() {
	r.dismiss()
	r.win.Hide()
}

func (r *resultWindow) copyShown() {
	if r.copy == nil || r.shown == "" {
		return
	}
	if err := r.copy(r.shown); err != nil {
		slog.Warn("gui: copy failed", "err", err)
	}
}
