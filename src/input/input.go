// Package input posts synthetic keyboard events to the active input stream.
package input

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/go-vgo/robotgo"
)

// Synthesizer posts one key-down/key-up pair with the given modifiers held.
type Synthesizer interface {
	Tap(key string, modifiers ...string) error
}

// Chord is a key plus its modifiers, in robotgo key names.
type Chord struct {
	Key       string
	Modifiers []string
}

// CopyChord is the platform "copy" shortcut.
func CopyChord() Chord {
	if runtime.GOOS == "darwin" {
		return Chord{Key: "c", Modifiers: []string{"cmd"}}
	}
	return Chord{Key: "c", Modifiers: []string{"ctrl"}}
}

// Send taps c on s.
func (c Chord) Send(s Synthesizer) error {
	return s.Tap(c.Key, c.Modifiers...)
}

// Robot is the robotgo-backed Synthesizer.
type Robot struct{}

func (Robot) Tap(key string, modifiers ...string) error {
	args := make([]interface{}, 0, len(modifiers))
	for _, m := range modifiers {
		args = append(args, m)
	}
	if err := robotgo.KeyTap(key, args...); err != nil {
		return fmt.Errorf("key tap %s%v: %w", key, modifiers, err)
	}
	slog.Debug("input: tapped", "key", key, "modifiers", modifiers)
	return nil
}
