package main

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"select-translate/src/singleinstance"
)

func TestNewRootCmdDefaults(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{}))
	assert.Equal(t, 20, opts.n)
	assert.False(t, opts.clipboard)
	assert.Equal(t, 90*time.Second, opts.deadline)
}

func TestNewRootCmdCustomFlags(t *testing.T) {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--n", "3", "--clipboard", "--deadline", "7s"}))
	assert.Equal(t, 3, opts.n)
	assert.True(t, opts.clipboard)
	assert.Equal(t, 7*time.Second, opts.deadline)
}

type scriptedClient struct {
	calls        *int32
	sawClipboard *int32
}

func (c scriptedClient) TryRunOnce(_ context.Context, req singleinstance.Request) (bool, string, error) {
	if req.Clipboard {
		atomic.AddInt32(c.sawClipboard, 1)
	}
	switch atomic.AddInt32(c.calls, 1) % 4 {
	case 0:
		return true, "ok", nil
	case 1:
		return true, "", errors.New("Cancelled.")
	case 2:
		return false, "", nil
	default:
		return false, "", errors.New("dial")
	}
}

func TestRunWithOptionsTallies(t *testing.T) {
	var calls, clip int32
	var out bytes.Buffer
	err := runWithOptions(context.Background(), stressOptions{n: 8, clipboard: true, deadline: time.Second},
		func() singleinstance.Client { return scriptedClient{calls: &calls, sawClipboard: &clip} }, &out)

	require.NoError(t, err)
	assert.EqualValues(t, 8, calls)
	assert.EqualValues(t, 8, clip)
	assert.Contains(t, out.String(), "launched=8 ok=2 failed=2 no-resident=2 err=2")
}

func TestRunWithOptionsRejectsZero(t *testing.T) {
	err := runWithOptions(context.Background(), stressOptions{}, nil, &bytes.Buffer{})
	assert.Error(t, err)
}
