package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) TryRunOnce(ctx context.Context, req Request) (bool, string, error) {
	probe := timeoutFrom(ctx, 300*time.Millisecond)
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		addr := address(port)
		if !ping(addr, probe) {
			continue
		}
		slog.Debug("singleinstance: resident found", "addr", addr)
		text, err := c.request(ctx, addr, req)
		return true, text, err
	}
	return false, "", nil
}

// request blocks until the resident answers; the capture and translation
// run on the resident's side.
func (c *tcpClient) request(ctx context.Context, addr string, req Request) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	w := bufio.NewWriter(conn)
	line := translateRequest
	if req.Clipboard {
		line = clipboardRequest
	}
	if _, err := w.WriteString(line); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	body, _ := io.ReadAll(br)
	switch status {
	case successResponse:
		return string(body), nil
	case errorResponse:
		return "", errors.New(string(body))
	default:
		return "", errors.New("unexpected resident reply")
	}
}
