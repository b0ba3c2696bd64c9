package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"select-translate/src/llm"
	"select-translate/src/pipeline"
	"select-translate/src/secret"
	"select-translate/src/singleinstance"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"select-translate", "-run-once", "-clipboard", "-config", "/tmp/c.toml"},
			out:  []string{"select-translate", "--run-once", "--clipboard", "--config", "/tmp/c.toml"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"select-translate", "-run-once=true", "-log-level=debug"},
			out:  []string{"select-translate", "--run-once=true", "--log-level=debug"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"select-translate", "--run-once", "--other", "-x"},
			out:  []string{"select-translate", "--run-once", "--other", "-x"},
		},
		{
			name: "Leaves program name alone",
			in:   []string{"-run-once"},
			out:  []string{"-run-once"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, normalizeLegacyArgs(tt.in))
		})
	}
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--run-once", "--clipboard", "--hotkey", "Ctrl+Alt+T", "--log-format", "json"}))
	assert.True(t, opts.runOnce)
	assert.True(t, opts.clipboard)
	assert.Equal(t, "Ctrl+Alt+T", opts.hotkey)
	assert.Equal(t, "json", opts.logFormat)
}

func TestClipboardRequiresRunOnce(t *testing.T) {
	err := runWithArgs([]string{"select-translate", "--clipboard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--run-once")
}

type fakeClient struct {
	delegated bool
	text      string
	err       error
	got       singleinstance.Request
}

func (f *fakeClient) TryRunOnce(_ context.Context, req singleinstance.Request) (bool, string, error) {
	f.got = req
	return f.delegated, f.text, f.err
}

func TestHandleRunOnceWithDelegation_DelegatesToResident(t *testing.T) {
	client := &fakeClient{delegated: true, text: "Привет"}
	var out bytes.Buffer
	fallbackCalled := false

	err := handleRunOnceWithDelegation(context.Background(), client, singleinstance.Request{Clipboard: true}, &out, func() error {
		fallbackCalled = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, fallbackCalled, "Expected fallback not to run")
	assert.Equal(t, "Привет\n", out.String())
	assert.True(t, client.got.Clipboard)
}

func TestHandleRunOnceWithDelegation_ResidentErrorIsReturned(t *testing.T) {
	client := &fakeClient{delegated: true, err: errors.New("Cancelled.")}
	fallbackCalled := false

	err := handleRunOnceWithDelegation(context.Background(), client, singleinstance.Request{}, &bytes.Buffer{}, func() error {
		fallbackCalled = true
		return nil
	})

	require.EqualError(t, err, "Cancelled.")
	assert.False(t, fallbackCalled)
}

func TestHandleRunOnceWithDelegation_FallsBackWhenNoResident(t *testing.T) {
	for _, client := range []*fakeClient{
		{},
		{err: errors.New("dial failed")},
	} {
		fallbackCalled := false
		err := handleRunOnceWithDelegation(context.Background(), client, singleinstance.Request{}, &bytes.Buffer{}, func() error {
			fallbackCalled = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, fallbackCalled)
	}
}

func TestHandleRunOnceWithDelegation_ReturnsFallbackError(t *testing.T) {
	want := errors.New("fallback failed")
	err := handleRunOnceWithDelegation(context.Background(), &fakeClient{}, singleinstance.Request{}, &bytes.Buffer{}, func() error {
		return want
	})
	assert.ErrorIs(t, err, want)
}

func TestPrintOutcome(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printOutcome(&out, pipeline.State{Phase: pipeline.Succeeded, Text: "Шалом"}))
	assert.Equal(t, "Шалом\n", out.String())

	out.Reset()
	require.NoError(t, printOutcome(&out, pipeline.State{Phase: pipeline.Succeeded}))
	assert.Equal(t, pipeline.MsgEmptyResponse+"\n", out.String())

	assert.EqualError(t, printOutcome(&out, pipeline.State{Phase: pipeline.Idle, Reason: pipeline.MsgCancelled}), pipeline.MsgCancelled)
	assert.Error(t, printOutcome(&out, pipeline.State{Phase: pipeline.Failed}))
}

func TestStoreKey(t *testing.T) {
	keyring.MockInit()
	store := secret.NewKeyring("select-translate-test")
	var out bytes.Buffer

	require.NoError(t, storeKey(store, "  AIzaSecretValue1234 \n", &out))
	got, ok := store.Load(llm.Account)
	require.True(t, ok)
	assert.Equal(t, "AIzaSecretValue1234", got)
	assert.NotContains(t, out.String(), "AIzaSecretValue1234")

	assert.Error(t, storeKey(store, "   ", &out))
}

func TestReadKey(t *testing.T) {
	key, err := readKey(strings.NewReader("abc123\nrest"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)

	key, err = readKey(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", key)
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd(&mainOptions{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), version)
	assert.Contains(t, out.String(), llm.Model)
}

func TestSetKeyCommandReadsStdin(t *testing.T) {
	keyring.MockInit()
	t.Setenv("SECRET_SERVICE", "select-translate-cmd-test")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCmd(&mainOptions{})
	cmd.SetIn(strings.NewReader("from-stdin-key\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"set-key"})
	require.NoError(t, cmd.Execute())

	got, ok := secret.NewKeyring("select-translate-cmd-test").Load(llm.Account)
	require.True(t, ok)
	assert.Equal(t, "from-stdin-key", got)
}
