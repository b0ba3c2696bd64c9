// Package singleinstance keeps one resident per user session and lets a
// run-once invocation hand its capture to that resident over loopback TCP.
//
// Wire protocol, one request per connection:
//
//	PING\n       -> PONG\n
//	TRANSLATE\n  -> SUCCESS\n<translation> | ERROR\n<reason>
//	CLIPBOARD\n  -> same replies, translating the clipboard text
package singleinstance

import (
	"context"
)

// Server owns the TCP endpoint and answers run-once requests.
type Server interface {
	// Start listens on the first port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

// Request is a single run-once client request.
type Request struct {
	// Clipboard asks for the clipboard text instead of the selection.
	Clipboard bool
}

// Client delegates a run-once invocation to a resident server.
type Client interface {
	// TryRunOnce returns delegated=false, err=nil when no resident answers.
	TryRunOnce(ctx context.Context, req Request) (delegated bool, text string, err error)
}

func NewServer() Server { return newTcpServer() }

func NewClient() Client { return newTcpClient() }
