// Package hotkey routes the global shortcut and the equivalent menu item to
// one trigger function.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"

	"select-translate/src/pipeline"
)

// Hook is the global keyboard hook.
type Hook interface {
	Register(keys []string, cb func())
	// Start runs the hook until Stop; it returns once events are flowing.
	Start() error
	Stop()
}

// Dispatcher calls Trigger for every activation. There is no debounce: each
// press starts its own run.
type Dispatcher struct {
	combo   string
	keys    []string
	hook    Hook
	trigger func(pipeline.Path)

	mu      sync.Mutex
	started bool
}

// New parses combo and prepares a dispatcher. hook may be nil for the
// process-wide gohook hook.
func New(combo string, hook Hook, trigger func(pipeline.Path)) (*Dispatcher, error) {
	keys, err := parseHotkey(combo)
	if err != nil {
		return nil, err
	}
	if trigger == nil {
		return nil, errors.New("trigger is required")
	}
	if hook == nil {
		hook = &GlobalHook{}
	}
	return &Dispatcher{combo: combo, keys: keys, hook: hook, trigger: trigger}, nil
}

// Combo returns the configured shortcut as written.
func (d *Dispatcher) Combo() string { return d.combo }

// Start registers the shortcut with the hook.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}
	d.hook.Register(d.keys, func() {
		slog.Debug("hotkey: activated", "combo", d.combo)
		d.trigger(pipeline.PathHotkey)
	})
	if err := d.hook.Start(); err != nil {
		return fmt.Errorf("start keyboard hook: %w", err)
	}
	d.started = true
	slog.Info("hotkey: listening", "combo", d.combo, "keys", d.keys)
	return nil
}

// Menu is the menu item's activation.
func (d *Dispatcher) Menu() { d.trigger(pipeline.PathMenu) }

// MenuClipboard is the "Translate clipboard" menu item's activation.
func (d *Dispatcher) MenuClipboard() { d.trigger(pipeline.PathClipboard) }

func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		d.hook.Stop()
		d.started = false
	}
}

// GlobalHook is gohook's process-wide hook.
type GlobalHook struct {
	done chan bool
}

func (h *GlobalHook) Register(keys []string, cb func()) {
	gohook.Register(gohook.KeyDown, keys, func(gohook.Event) { cb() })
}

func (h *GlobalHook) Start() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gohook panicked: %v", r)
		}
	}()
	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start returned nil channel")
	}
	h.done = gohook.Process(evChan)
	return nil
}

// Stop ends the hook; the processing goroutine drains on its own.
func (h *GlobalHook) Stop() {
	gohook.End()
	h.done = nil
}

var modifierNames = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"shift":   "shift",
	"cmd":     "cmd",
	"command": "cmd",
	"win":     "cmd",
	"super":   "cmd",
	"meta":    "cmd",
}

// parseHotkey converts a hotkey string like "Cmd+Shift+L" to gohook key
// names, modifiers first in the order written. Exactly one non-modifier key
// is required.
func parseHotkey(hotkeyConfig string) ([]string, error) {
	var (
		mods []string
		key  string
	)
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if m, ok := modifierNames[part]; ok {
			mods = append(mods, m)
			continue
		}
		if key != "" {
			return nil, fmt.Errorf("hotkey %q: more than one key (%s, %s)", hotkeyConfig, key, part)
		}
		key = part
	}
	if key == "" {
		return nil, fmt.Errorf("hotkey %q: no key", hotkeyConfig)
	}
	if len(mods) == 0 {
		return nil, fmt.Errorf("hotkey %q: at least one modifier is required", hotkeyConfig)
	}
	return append(mods, key), nil
}
