package gui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type settingsWindow struct {
	win    fyne.Window
	key    *widget.Entry
	status *widget.Label
	opts   Options
}

func newSettingsWindow(a fyne.App, opts Options) *settingsWindow {
	s := &settingsWindow{win: a.NewWindow(appName + " Settings"), opts: opts}
	s.key = widget.NewPasswordEntry()
	s.key.SetPlaceHolder("Gemini API key")
	s.status = widget.NewLabel("")

	form := widget.NewForm(
		widget.NewFormItem("API key", s.key),
		widget.NewFormItem("Model", widget.NewLabel(opts.Model)),
		widget.NewFormItem("Hotkey", widget.NewLabel(opts.Hotkey)),
	)
	form.SubmitText = "Save"
	form.OnSubmit = s.save
	form.CancelText = "Close"
	form.OnCancel = s.win.Hide

	s.win.SetContent(container.NewVBox(form, s.status))
	s.win.Resize(fyne.NewSize(420, 0))
	s.win.SetCloseIntercept(s.win.Hide)
	return s
}

func (s *settingsWindow) show() {
	s.status.SetText("")
	if s.opts.Secrets != nil {
		if _, ok := s.opts.Secrets.Load(s.opts.Account); ok {
			s.status.SetText("A key is stored.")
		}
	}
	s.win.Show()
	s.win.RequestFocus()
}

func (s *settingsWindow) save() {
	key := strings.TrimSpace(s.key.Text)
	switch {
	case key == "":
		s.status.SetText("Enter a key first.")
	case s.opts.Secrets == nil || !s.opts.Secrets.Save(s.opts.Account, key):
		s.status.SetText("Could not save the key.")
	default:
		s.key.SetText("")
		s.status.SetText("Saved.")
	}
}
