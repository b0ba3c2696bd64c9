// Command cli translates text from a file or stdin with the same provider
// client the resident uses, without any selection capture.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"select-translate/src/config"
	"select-translate/src/llm"
	"select-translate/src/logutil"
	"select-translate/src/secret"
)

const (
	maxInputSizeKB = 64
	maxInputSize   = maxInputSizeKB * 1024
)

type cliOptions struct {
	filePath   string
	jsonOutput bool
	verbose    bool
	configFile string
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
		args = []string{"translate-tool"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "translate-tool",
		Short:         "Translate text from a file or stdin",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, cmd.Flags(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to a UTF-8 text file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to a TOML config file")
	cmd.Flags().String("endpoint", "", "Override the Gemini API base URL")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, flags *pflag.FlagSet, stdin io.Reader, stdout io.Writer) error {
	// Logging goes to stderr only, and only with --verbose.
	level := logutil.ParseLevel("error")
	if opts.verbose {
		level = logutil.ParseLevel("debug")
	}
	logutil.Setup(logutil.Options{Format: logutil.FormatText, Level: level})

	cfg, err := config.LoadWithOptions(config.LoadOptions{ConfigFile: opts.configFile, Flags: flags})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Debug("config loaded", "model", llm.Model, "key_file", cfg.APIKeyPath, "config_file", cfg.ConfigFile)

	text, err := readInput(opts.filePath, stdin)
	if err != nil {
		return err
	}

	client := llm.New(llm.Config{
		Endpoint:    cfg.Endpoint,
		Timeout:     time.Duration(cfg.RequestTimeoutSec) * time.Second,
		Keys:        secret.NewKeyring(cfg.SecretService),
		FallbackKey: cfg.APIKey,
	})
	return translate(ctx, client, text, opts.filePath, opts.jsonOutput, stdout)
}

func readInput(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		slog.Debug("reading text from stdin")
		data, err = io.ReadAll(io.LimitReader(stdin, maxInputSize+1))
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		slog.Debug("reading text from file", "path", path)
		data, err = os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}

	if len(data) > maxInputSize {
		return "", fmt.Errorf("input exceeds maximum size of %d KB", maxInputSizeKB)
	}
	if !utf8.Valid(data) {
		return "", errors.New("input is not valid UTF-8 text")
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("input is empty")
	}
	return text, nil
}

type textTranslator interface {
	Translate(ctx context.Context, text string) (string, error)
}

func translate(ctx context.Context, t textTranslator, text, source string, jsonOutput bool, out io.Writer) error {
	start := time.Now()
	result, err := t.Translate(ctx, text)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			return fmt.Errorf("%w: run `select-translate set-key` or set %s", err, config.KeyAPIKey)
		}
		return fmt.Errorf("translation failed: %w", err)
	}
	slog.Debug("translation completed", "elapsed", elapsed, "chars", utf8.RuneCountInString(result))

	return outputResult(out, result, source, elapsed, jsonOutput)
}

type TranslationResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func outputResult(out io.Writer, text, source string, elapsed time.Duration, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprintln(out, text)
		return err
	}

	result := TranslationResult{
		Text:      text,
		Source:    source,
		Model:     llm.Model,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: utf8.RuneCountInString(text),
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "verbose", "config", "endpoint"} {
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
