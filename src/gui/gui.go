// Package gui is the fyne front end: the tray menu, the floating result
// window that presents pipeline messages, the clipboard confirmation dialog
// and the settings window.
package gui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"select-translate/src/secret"
)

const (
	appID   = "dev.select-translate"
	appName = "Select Translate"
)

type Options struct {
	Hotkey  string
	Model   string
	Secrets secret.Store
	Account string
	// Copy writes the shown translation to the clipboard.
	Copy func(text string) error

	OnTranslateSelection func()
	OnTranslateClipboard func()
	OnQuit               func()
}

// UI owns the fyne application. Construct it on the main goroutine and
// call Run there; every other method may be called from any goroutine.
type UI struct {
	app      fyne.App
	opts     Options
	result   *resultWindow
	settings *settingsWindow
}

// New creates the UI on a. A nil a creates the desktop application.
func New(a fyne.App, opts Options) *UI {
	if a == nil {
		a = app.NewWithID(appID)
	}
	a.SetIcon(iconResource)
	u := &UI{app: a, opts: opts}
	u.result = newResultWindow(a, opts.Copy)
	u.settings = newSettingsWindow(a, opts)
	return u
}

// InstallTray builds the menu bar / system tray menu. It reports false
// when the driver has no tray.
func (u *UI) InstallTray() bool {
	desk, ok := u.app.(desktop.App)
	if !ok {
		slog.Warn("gui: system tray unavailable")
		return false
	}
	menu := fyne.NewMenu(appName,
		fyne.NewMenuItem("Translate selection", orNoop(u.opts.OnTranslateSelection)),
		fyne.NewMenuItem("Translate clipboard", orNoop(u.opts.OnTranslateClipboard)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Settings…", u.ShowSettings),
	)
	// fyne appends its own Quit item to the tray menu.
	desk.SetSystemTrayMenu(menu)
	desk.SetSystemTrayIcon(iconResource)
	slog.Info("gui: tray installed")
	return true
}

func orNoop(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	return fn
}

// Run blocks in the fyne event loop until Quit.
func (u *UI) Run() {
	u.app.Lifecycle().SetOnStopped(func() {
		if u.opts.OnQuit != nil {
			u.opts.OnQuit()
		}
	})
	u.app.Run()
}

func (u *UI) Quit() { fyne.Do(u.app.Quit) }

// Show presents message in the result window; the latest call wins.
func (u *UI) Show(message string) {
	fyne.Do(func() { u.result.show(message) })
}

func (u *UI) ShowSettings() {
	fyne.Do(u.settings.show)
}
