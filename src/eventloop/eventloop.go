// Package eventloop is the resident's dispatch context: it receives hotkey,
// menu and run-once triggers and starts one pipeline run per trigger.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"select-translate/src/pipeline"
	"select-translate/src/singleinstance"
)

// Runner is one pipeline run per trigger.
type Runner interface {
	Run(ctx context.Context, path pipeline.Path) pipeline.State
}

// Loop is the single-goroutine dispatcher. Runs themselves proceed
// concurrently; nothing is cancelled when a new trigger arrives.
type Loop struct {
	runner   Runner
	srv      singleinstance.Server
	triggers chan request
	runs     sync.WaitGroup
}

type request struct {
	path   pipeline.Path
	target resultTarget
}

// resultTarget receives the state a run ended in.
type resultTarget interface {
	Deliver(st pipeline.State)
	Close()
}

// presentedTarget is for UI triggers: the sink has already shown the result.
type presentedTarget struct{}

func (presentedTarget) Deliver(pipeline.State) {}

func (presentedTarget) Close() {}

type delegatedTarget struct {
	conn singleinstance.Conn
}

func (t delegatedTarget) Deliver(st pipeline.State) {
	var err error
	switch st.Phase {
	case pipeline.Succeeded:
		text := st.Text
		if text == "" {
			text = pipeline.MsgEmptyResponse
		}
		err = t.conn.RespondSuccess(text)
	default:
		reason := st.Reason
		if reason == "" {
			reason = "unknown session error"
		}
		err = t.conn.RespondError(reason)
	}
	if err != nil {
		slog.Warn("eventloop: reply to run-once client failed", "err", err)
	}
}

func (t delegatedTarget) Close() { _ = t.conn.Close() }

// New creates a loop. srv may be nil to run without run-once delegation.
func New(runner Runner, srv singleinstance.Server) *Loop {
	return &Loop{
		runner:   runner,
		srv:      srv,
		triggers: make(chan request, 16),
	}
}

// Trigger enqueues a run from a UI path. Safe from any goroutine, never
// blocks.
func (l *Loop) Trigger(path pipeline.Path) {
	select {
	case l.triggers <- request{path: path, target: presentedTarget{}}:
	default:
		slog.Warn("eventloop: trigger queue full, dropping", "path", string(path))
	}
}

// Run processes triggers until ctx is cancelled, then waits for in-flight
// runs to return.
func (l *Loop) Run(ctx context.Context) error {
	defer l.runs.Wait()

	var conns <-chan singleinstance.Conn
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			return err
		}
		defer l.srv.Close()
		slog.Info("eventloop: resident listening", "port", l.srv.Port())
		conns = l.accept(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-l.triggers:
			l.start(ctx, req)
		case conn, ok := <-conns:
			if !ok {
				conns = nil
				continue
			}
			path := pipeline.PathRunOnce
			if conn.Request().Clipboard {
				path = pipeline.PathRunOnceClipboard
			}
			l.start(ctx, request{path: path, target: delegatedTarget{conn: conn}})
		}
	}
}

// Accept loop in background so a slow client never blocks dispatch.
func (l *Loop) accept(ctx context.Context) <-chan singleinstance.Conn {
	ch := make(chan singleinstance.Conn, 4)
	go func() {
		defer close(ch)
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Debug("eventloop: accept stopped", "err", err)
				}
				return
			}
			select {
			case ch <- conn:
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()
	return ch
}

func (l *Loop) start(ctx context.Context, req request) {
	l.runs.Add(1)
	go func() {
		defer l.runs.Done()
		defer req.target.Close()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("eventloop: run panicked", "path", string(req.path), "panic", r)
				req.target.Deliver(pipeline.State{Phase: pipeline.Failed, Reason: "internal error"})
			}
		}()
		req.target.Deliver(l.runner.Run(ctx, req.path))
	}()
}
