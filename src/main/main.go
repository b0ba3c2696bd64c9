package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"select-translate/src/clipboard"
	"select-translate/src/config"
	"select-translate/src/eventloop"
	"select-translate/src/gui"
	"select-translate/src/hotkey"
	"select-translate/src/llm"
	"select-translate/src/logutil"
	"select-translate/src/permission"
	"select-translate/src/pipeline"
	"select-translate/src/runtimeinit"
	"select-translate/src/secret"
	"select-translate/src/singleinstance"
)

var version = "dev"

type mainOptions struct {
	runOnce    bool
	clipboard  bool
	configFile string
	logLevel   string
	logFormat  string
	hotkey     string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"select-translate"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "select-translate",
		Short:         "Translate the selected text with a global hotkey",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.runOnce {
				return runOnce(cmd, opts)
			}
			if opts.clipboard {
				return errors.New("--clipboard requires --run-once")
			}
			return runResident(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Translate once (delegating to a running resident) and print the result")
	cmd.Flags().BoolVar(&opts.clipboard, "clipboard", false, "With --run-once, translate the clipboard instead of the selection")
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a TOML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: auto|text|json")
	cmd.Flags().StringVar(&opts.hotkey, "hotkey", "", "Global hotkey, e.g. Cmd+Shift+L")

	cmd.AddCommand(newSetKeyCmd(opts), newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "select-translate %s (model %s)\n", version, llm.Model)
			return err
		},
	}
}

func newSetKeyCmd(opts *mainOptions) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store the Gemini API key in the system keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithOptions(loadOptions(cmd, opts))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if key == "" {
				key, err = readKey(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			return storeKey(secret.NewKeyring(cfg.SecretService), key, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key (read from stdin when omitted)")
	return cmd
}

func readKey(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func storeKey(store secret.Store, key string, out io.Writer) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("empty API key")
	}
	if !store.Save(llm.Account, key) {
		return errors.New("failed to store the API key")
	}
	fmt.Fprintf(out, "Stored key %s\n", logutil.RedactKey(key))
	return nil
}

func loadOptions(cmd *cobra.Command, opts *mainOptions) config.LoadOptions {
	return config.LoadOptions{ConfigFile: opts.configFile, Flags: cmd.Flags()}
}

func setupLogging(cfg *config.Config) io.Closer {
	return logutil.Setup(logutil.Options{
		Format:      logutil.ParseFormat(cfg.LogFormat),
		Level:       logutil.ParseLevel(cfg.LogLevel),
		FileLogging: cfg.EnableFileLogging,
		Dir:         logDir(),
	})
}

// logDir keeps the log file next to the executable.
func logDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// runOnce prefers delegating to the resident; without one it runs a single
// capture in this process.
func runOnce(cmd *cobra.Command, opts *mainOptions) error {
	// Load early so .env values such as SINGLEINSTANCE_PORT_* apply before the scan.
	if cfg, err := config.LoadWithOptions(loadOptions(cmd, opts)); err == nil {
		exportPortRange(cfg)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := singleinstance.Request{Clipboard: opts.clipboard}
	return handleRunOnceWithDelegation(ctx, singleinstance.NewClient(), req, cmd.OutOrStdout(), func() error {
		return runStandalone(ctx, cmd, opts)
	})
}

func handleRunOnceWithDelegation(ctx context.Context, client singleinstance.Client, req singleinstance.Request, out io.Writer, fallback func() error) error {
	delegated, text, err := client.TryRunOnce(ctx, req)
	switch {
	case delegated && err == nil:
		slog.Debug("run-once: delegated to resident")
		_, werr := fmt.Fprintln(out, text)
		return werr
	case delegated:
		return err
	case err != nil:
		slog.Warn("run-once: delegation failed, running standalone", "err", err)
	default:
		slog.Debug("run-once: no resident, running standalone")
	}
	return fallback()
}

func runStandalone(ctx context.Context, cmd *cobra.Command, opts *mainOptions) error {
	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions:  loadOptions(cmd, opts),
		SetupLogging: setupLogging,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	stderr := cmd.ErrOrStderr()
	confirm := gui.TerminalConfirm{In: cmd.InOrStdin(), Out: stderr, Interactive: logutil.IsTTY(os.Stdin) && logutil.IsTTY(stderr)}
	p, err := rt.Pipeline(&gui.Terminal{W: stderr}, confirm)
	if err != nil {
		return err
	}

	path := pipeline.PathRunOnce
	if opts.clipboard {
		path = pipeline.PathRunOnceClipboard
	}
	return printOutcome(cmd.OutOrStdout(), p.Run(ctx, path))
}

func printOutcome(out io.Writer, st pipeline.State) error {
	switch st.Phase {
	case pipeline.Succeeded:
		text := st.Text
		if text == "" {
			text = pipeline.MsgEmptyResponse
		}
		_, err := fmt.Fprintln(out, text)
		return err
	default:
		if st.Reason == "" {
			return errors.New("translation did not complete")
		}
		return errors.New(st.Reason)
	}
}

func runResident(cmd *cobra.Command, opts *mainOptions) error {
	if cfg, err := config.LoadWithOptions(loadOptions(cmd, opts)); err == nil {
		exportPortRange(cfg)
	}
	probe, cancelProbe := context.WithTimeout(cmd.Context(), 2*time.Second)
	port, running := singleinstance.DetectResidentPort(probe)
	cancelProbe()
	if running {
		return fmt.Errorf("already running on port %d", port)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions:  loadOptions(cmd, opts),
		SetupLogging: setupLogging,
		PingProvider: true,
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg := rt.Config

	if gate, ok := rt.Checker.(*permission.Gate); ok {
		if st := gate.Request(); !st.Granted() {
			slog.Warn("resident: permissions missing", "missing", st.Missing())
		}
	}

	var (
		dispatcher *hotkey.Dispatcher
		loop       *eventloop.Loop
	)
	ui := gui.New(nil, gui.Options{
		Hotkey:  cfg.Hotkey,
		Model:   llm.Model,
		Secrets: rt.Secrets,
		Account: llm.Account,
		Copy:    clipboard.Write,
		OnTranslateSelection: func() {
			if dispatcher != nil {
				dispatcher.Menu()
			} else {
				loop.Trigger(pipeline.PathMenu)
			}
		},
		OnTranslateClipboard: func() {
			if dispatcher != nil {
				dispatcher.MenuClipboard()
			} else {
				loop.Trigger(pipeline.PathClipboard)
			}
		},
		OnQuit: cancel,
	})

	p, err := rt.Pipeline(ui, ui)
	if err != nil {
		return err
	}
	loop = eventloop.New(p, singleinstance.NewServer())

	if d, err := hotkey.New(cfg.Hotkey, nil, loop.Trigger); err != nil {
		slog.Warn("resident: hotkey disabled", "hotkey", cfg.Hotkey, "err", err)
	} else if err := d.Start(); err != nil {
		slog.Warn("resident: hotkey disabled", "hotkey", cfg.Hotkey, "err", err)
	} else {
		dispatcher = d
		defer d.Stop()
	}

	loopDone := make(chan error, 1)
	go func() {
		err := loop.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("resident: event loop stopped", "err", err)
			ui.Quit()
		}
		loopDone <- err
	}()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		select {
		case <-ch:
			slog.Info("resident: signal received, quitting")
			ui.Quit()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()

	ui.InstallTray()
	slog.Info("resident: ready", "hotkey", cfg.Hotkey, "model", llm.Model)
	ui.Run()

	cancel()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// exportPortRange makes .env or TOML port settings visible to singleinstance,
// which reads the process environment.
func exportPortRange(cfg *config.Config) {
	for _, kv := range [][2]string{
		{singleinstance.PortStartEnvVar, cfg.PortStart},
		{singleinstance.PortEndEnvVar, cfg.PortEnd},
	} {
		if kv[1] != "" && os.Getenv(kv[0]) == "" {
			_ = os.Setenv(kv[0], kv[1])
		}
	}
}

// normalizeLegacyArgs maps single-dash long flags (-run-once) to cobra's
// --run-once form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range legacyFlags {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}

var legacyFlags = []string{"run-once", "clipboard", "config", "log-level", "log-format", "hotkey"}
