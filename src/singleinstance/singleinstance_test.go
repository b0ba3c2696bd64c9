package singleinstance

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// usePort points the range at one free loopback port.
func usePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback unavailable in this environment: %v", err)
	}
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	t.Setenv(PortStartEnvVar, strconv.Itoa(port))
	t.Setenv(PortEndEnvVar, strconv.Itoa(port))
	return port
}

func startServer(t *testing.T, ctx context.Context) Server {
	t.Helper()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("tcp listen unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestServerClientRoundTrip(t *testing.T) {
	port := usePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)
	assert.Equal(t, port, srv.Port())

	type reply struct {
		delegated bool
		text      string
		err       error
	}
	done := make(chan reply, 1)
	go func() {
		d, text, err := NewClient().TryRunOnce(ctx, Request{})
		done <- reply{d, text, err}
	}()

	conn, err := srv.Next(ctx)
	require.NoError(t, err)
	assert.False(t, conn.Request().Clipboard)
	require.NoError(t, conn.RespondSuccess("Привет\nмир"))
	require.NoError(t, conn.Close())

	r := <-done
	require.NoError(t, r.err)
	assert.True(t, r.delegated)
	assert.Equal(t, "Привет\nмир", r.text)
}

func TestClipboardRequestAndError(t *testing.T) {
	usePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	errCh := make(chan error, 1)
	go func() {
		_, _, err := NewClient().TryRunOnce(ctx, Request{Clipboard: true})
		errCh <- err
	}()

	conn, err := srv.Next(ctx)
	require.NoError(t, err)
	assert.True(t, conn.Request().Clipboard)
	require.NoError(t, conn.RespondError("Clipboard is empty."))
	require.NoError(t, conn.Close())

	err = <-errCh
	require.Error(t, err)
	assert.Equal(t, "Clipboard is empty.", err.Error())
}

func TestNoResident(t *testing.T) {
	usePort(t)
	delegated, _, err := NewClient().TryRunOnce(context.Background(), Request{})
	assert.NoError(t, err)
	assert.False(t, delegated)

	_, found := DetectResidentPort(context.Background())
	assert.False(t, found)
}

func TestDetectResident(t *testing.T) {
	port := usePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startServer(t, ctx)

	got, found := DetectResidentPort(ctx)
	assert.True(t, found)
	assert.Equal(t, port, got)
}

func TestSecondServerCannotBind(t *testing.T) {
	usePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startServer(t, ctx)

	assert.Error(t, NewServer().Start(ctx))
}

func TestNextAfterClose(t *testing.T) {
	usePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := startServer(t, ctx)
	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())

	_, err := srv.Next(ctx)
	assert.ErrorIs(t, err, net.ErrClosed)
}

func TestPortRange(t *testing.T) {
	t.Setenv(PortStartEnvVar, "80")
	t.Setenv(PortEndEnvVar, "70000")
	start, end := getPortRange()
	assert.Equal(t, 1024, start)
	assert.Equal(t, 65535, end)

	t.Setenv(PortStartEnvVar, "50010")
	t.Setenv(PortEndEnvVar, "50000")
	start, end = getPortRange()
	assert.Equal(t, 50000, start)
	assert.Equal(t, 50010, end)

	t.Setenv(PortStartEnvVar, "x")
	t.Setenv(PortEndEnvVar, "")
	start, end = getPortRange()
	assert.Equal(t, defaultPortStart, start)
	assert.Equal(t, defaultPortEnd, end)
}
