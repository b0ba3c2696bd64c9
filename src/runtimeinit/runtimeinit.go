// Package runtimeinit wires configuration, logging and the capture and
// translation stack shared by the resident and standalone run-once modes.
package runtimeinit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"select-translate/src/accessibility"
	"select-translate/src/capture"
	"select-translate/src/clipboard"
	"select-translate/src/config"
	"select-translate/src/input"
	"select-translate/src/llm"
	"select-translate/src/logutil"
	"select-translate/src/permission"
	"select-translate/src/pipeline"
	"select-translate/src/secret"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(cfg *config.Config) io.Closer
	// PingProvider checks the provider in the background; failure is only
	// logged.
	PingProvider bool

	// Overrides for the platform adapters; nil means the system one.
	Board   clipboard.Board
	Keys    input.Synthesizer
	Opener  accessibility.Opener
	Checker permission.Checker
	Secrets secret.Store
	Timing  *capture.Timing
}

type Runtime struct {
	Config     *config.Config
	Secrets    secret.Store
	Translator *llm.Client
	Board      clipboard.Board
	Checker    permission.Checker
	Reader     *accessibility.Reader
	Fallback   *capture.Fallback

	logCloser io.Closer
}

func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	rt := &Runtime{Config: cfg}
	if opts.SetupLogging != nil {
		rt.logCloser = opts.SetupLogging(cfg)
	}
	if cfg.ConfigFile != "" {
		slog.Info("runtime: config file", "path", cfg.ConfigFile)
	}

	rt.Secrets = opts.Secrets
	if rt.Secrets == nil {
		rt.Secrets = secret.NewKeyring(cfg.SecretService)
	}
	rt.Translator = llm.New(llm.Config{
		Endpoint:    cfg.Endpoint,
		Timeout:     time.Duration(cfg.RequestTimeoutSec) * time.Second,
		Keys:        rt.Secrets,
		FallbackKey: cfg.APIKey,
	})
	if key, err := rt.Translator.APIKey(); err == nil {
		slog.Info("runtime: API key available", "key", logutil.RedactKey(key))
	} else {
		slog.Warn("runtime: no API key yet; add one in Settings or with set-key")
	}

	rt.Board = opts.Board
	if rt.Board == nil {
		if rt.Board, err = clipboard.NewSystem(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	rt.Checker = opts.Checker
	if rt.Checker == nil {
		rt.Checker = permission.New()
	}

	opener := opts.Opener
	if opener == nil {
		opener = accessibility.SystemOpener()
	}
	rt.Reader = accessibility.NewReader(opener)

	keys := opts.Keys
	if keys == nil {
		keys = input.Robot{}
	}
	var fbOpts []capture.FallbackOption
	if opts.Timing != nil {
		fbOpts = append(fbOpts, capture.WithTiming(*opts.Timing))
	}
	rt.Fallback = capture.NewFallback(rt.Board, keys, fbOpts...)

	if opts.PingProvider {
		go rt.ping(ctx)
	}
	return rt, nil
}

func (rt *Runtime) ping(ctx context.Context) {
	if err := rt.Translator.Ping(ctx); err != nil {
		slog.Warn("runtime: provider check failed", "err", err)
		return
	}
	slog.Info("runtime: provider check succeeded", "model", llm.Model)
}

// Pipeline assembles the capture coordinator and the pipeline around the
// given presentation.
func (rt *Runtime) Pipeline(sink pipeline.Sink, confirm capture.Confirmer) (*pipeline.Pipeline, error) {
	coord := capture.NewCoordinator(rt.Checker, rt.Reader, rt.Board, rt.Fallback, confirm)
	return pipeline.New(pipeline.Options{
		Capturer:   coord,
		Translator: rt.Translator,
		Sink:       sink,
	})
}

func (rt *Runtime) Close() {
	if rt.logCloser != nil {
		_ = rt.logCloser.Close()
		rt.logCloser = nil
	}
}
