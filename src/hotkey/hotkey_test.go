package hotkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"select-translate/src/pipeline"
)

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Cmd+Shift+L", []string{"cmd", "shift", "l"}},
		{"Ctrl+Shift+L", []string{"ctrl", "shift", "l"}},
		{"Ctrl+Alt+Q", []string{"ctrl", "alt", "q"}},
		{"Ctrl+alt+e", []string{"ctrl", "alt", "e"}},
		{"Alt+F4", []string{"alt", "f4"}},
		{"Ctrl+Win+E", []string{"ctrl", "cmd", "e"}},
		{"Super+Alt+T", []string{"cmd", "alt", "t"}},
		{"Option + Command + T", []string{"alt", "cmd", "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := parseHotkey(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseHotkeyRejects(t *testing.T) {
	for _, in := range []string{"", "L", "Ctrl+Shift", "Ctrl+A+B"} {
		_, err := parseHotkey(in)
		assert.Error(t, err, in)
	}
}

type fakeHook struct {
	keys     []string
	cb       func()
	starts   int
	stops    int
	startErr error
}

func (h *fakeHook) Register(keys []string, cb func()) { h.keys, h.cb = keys, cb }

func (h *fakeHook) Start() error {
	h.starts++
	return h.startErr
}

func (h *fakeHook) Stop() { h.stops++ }

func TestDispatcherRoutesEveryActivation(t *testing.T) {
	hook := &fakeHook{}
	var paths []pipeline.Path
	d, err := New("Cmd+Shift+L", hook, func(p pipeline.Path) { paths = append(paths, p) })
	require.NoError(t, err)
	require.NoError(t, d.Start())
	require.NoError(t, d.Start())
	assert.Equal(t, 1, hook.starts)
	assert.Equal(t, []string{"cmd", "shift", "l"}, hook.keys)

	hook.cb()
	hook.cb()
	d.Menu()
	d.MenuClipboard()
	assert.Equal(t, []pipeline.Path{pipeline.PathHotkey, pipeline.PathHotkey, pipeline.PathMenu, pipeline.PathClipboard}, paths)

	d.Stop()
	d.Stop()
	assert.Equal(t, 1, hook.stops)
}

func TestDispatcherStartError(t *testing.T) {
	hook := &fakeHook{startErr: errors.New("no input monitoring")}
	d, err := New("Ctrl+Shift+L", hook, func(pipeline.Path) {})
	require.NoError(t, err)
	assert.ErrorContains(t, d.Start(), "no input monitoring")
	d.Stop()
	assert.Zero(t, hook.stops)
}

func TestNewValidates(t *testing.T) {
	_, err := New("L", &fakeHook{}, func(pipeline.Path) {})
	assert.Error(t, err)
	_, err = New("Ctrl+L", &fakeHook{}, nil)
	assert.Error(t, err)
}
