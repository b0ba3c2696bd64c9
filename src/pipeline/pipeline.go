// Package pipeline runs one trigger end to end: capture the selection,
// translate it, and drive what the presentation sink shows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"select-translate/src/capture"
	"select-translate/src/llm"
	"select-translate/src/logutil"
)

type Phase int

const (
	Idle Phase = iota
	Capturing
	Translating
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Capturing:
		return "capturing"
	case Translating:
		return "translating"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// State is the pipeline's externally visible state. Text is set in
// Succeeded, Reason in Failed and in an Idle reached through a notified
// failure.
type State struct {
	Phase  Phase
	Text   string
	Reason string
}

// Path names where a trigger came from.
type Path string

const (
	PathHotkey    Path = "hotkey"
	PathMenu      Path = "menu"
	PathClipboard Path = "menu-clipboard"
	PathRunOnce   Path = "run-once"
	// PathRunOnceClipboard is a delegated request for the clipboard text.
	PathRunOnceClipboard Path = "run-once-clipboard"
)

func (p Path) clipboardOnly() bool {
	return p == PathClipboard || p == PathRunOnceClipboard
}

const (
	MsgTranslating    = "Translating…"
	MsgEmptyResponse  = "Empty response from model."
	MsgMissingKey     = "Gemini key not found.\nOpen Settings and add a key."
	MsgCaptureEmpty   = "Could not get the selected text.\nTry again or use \"Translate clipboard\" in the menu."
	MsgCancelled      = "Cancelled."
	MsgRecovered      = "Selection not captured, using clipboard…"
	MsgClipboardEmpty = "Clipboard is empty."
	msgErrorPrefix    = "Translation error: "
)

// Sink renders state as text. Show may be called from any goroutine; the
// most recent call wins.
type Sink interface {
	Show(message string)
}

type SinkFunc func(message string)

func (f SinkFunc) Show(message string) { f(message) }

type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

type Capturer interface {
	Capture(ctx context.Context) (capture.Result, error)
	CaptureClipboard(ctx context.Context) (capture.Result, error)
}

type Options struct {
	Capturer   Capturer
	Translator Translator
	Sink       Sink
	// OnState observes every transition, in order, for one run.
	OnState func(State)
}

// Pipeline owns the single live State of the process. Runs from distinct
// paths proceed concurrently and overwrite that state as they progress.
type Pipeline struct {
	capturer   Capturer
	translator Translator
	sink       Sink
	onState    func(State)

	flights singleflight.Group

	mu    sync.Mutex
	state State
}

func New(opts Options) (*Pipeline, error) {
	if opts.Capturer == nil {
		return nil, errors.New("Capturer is required")
	}
	if opts.Translator == nil {
		return nil, errors.New("Translator is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("Sink is required")
	}
	return &Pipeline{
		capturer:   opts.Capturer,
		translator: opts.Translator,
		sink:       opts.Sink,
		onState:    opts.OnState,
	}, nil
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) set(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	if p.onState != nil {
		p.onState(s)
	}
}

// Run executes one trigger and returns the state it ended in.
func (p *Pipeline) Run(ctx context.Context, path Path) State {
	log := slog.With("run", ulid.Make().String(), "path", string(path))
	log.Info("pipeline: triggered")

	p.set(State{Phase: Capturing})

	var (
		res capture.Result
		err error
	)
	if path.clipboardOnly() {
		res, err = p.capturer.CaptureClipboard(ctx)
	} else {
		res, err = p.capturer.Capture(ctx)
	}
	if err != nil {
		msg := captureMessage(err)
		log.Info("pipeline: nothing to translate", "err", err)
		p.sink.Show(msg)
		end := State{Phase: Idle, Reason: msg}
		p.set(end)
		return end
	}
	log.Info("pipeline: captured", "source", res.Source.String(), "text", logutil.Sanitize(res.Text))
	if res.Recovered {
		p.sink.Show(MsgRecovered)
	}

	p.set(State{Phase: Translating})
	p.sink.Show(MsgTranslating)

	v, err, shared := p.flights.Do(flightKey(path, res.Text), func() (any, error) {
		return p.translator.Translate(ctx, res.Text)
	})
	if shared {
		log.Debug("pipeline: joined in-flight translation")
	}
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			log.Warn("pipeline: no API key")
			p.sink.Show(MsgMissingKey)
			end := State{Phase: Idle, Reason: MsgMissingKey}
			p.set(end)
			return end
		}
		reason := err.Error()
		log.Warn("pipeline: translation failed", "err", reason)
		p.sink.Show(msgErrorPrefix + reason)
		end := State{Phase: Failed, Reason: reason}
		p.set(end)
		return end
	}

	text, _ := v.(string)
	end := State{Phase: Succeeded, Text: text}
	p.set(end)
	if text == "" {
		log.Info("pipeline: empty translation")
		p.sink.Show(MsgEmptyResponse)
	} else {
		log.Info("pipeline: translated", "chars", len(text))
		p.sink.Show(text)
	}
	return end
}

// flightKey joins runs only when both the trigger path and the captured
// text match.
func flightKey(path Path, text string) string {
	return string(path) + "\x00" + text
}

func captureMessage(err error) string {
	var perr *capture.PermissionError
	switch {
	case errors.As(err, &perr):
		return perr.Status.Message()
	case errors.Is(err, capture.ErrFallbackDeclined):
		return MsgCancelled
	case errors.Is(err, capture.ErrClipboardEmpty):
		return MsgClipboardEmpty
	case errors.Is(err, capture.ErrCaptureEmpty):
		return MsgCaptureEmpty
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgCancelled
	default:
		return fmt.Sprintf("Capture failed: %v", err)
	}
}
