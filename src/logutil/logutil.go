// Package logutil configures the process-wide slog logger.
package logutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

const (
	logFileName   = "select_translate.log"
	maxSizeBytes  = 10 * 1024 * 1024 // 10 MB
	maxArchives   = 3
	maxLoggedText = 80
)

type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat returns FormatAuto for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel defaults to Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

type Options struct {
	Format Format
	Level  slog.Level
	// FileLogging sends JSON records to a size-rotated file in Dir (10MB,
	// max 3 archives) instead of stderr.
	FileLogging bool
	Dir         string
	// Writer replaces stderr; used by tests.
	Writer io.Writer
}

// Setup installs the default logger. The returned closer releases the log
// file, if any.
func Setup(opts Options) io.Closer {
	if opts.FileLogging {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		w, err := openRotating(filepath.Join(dir, logFileName))
		if err == nil {
			slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})))
			return w
		}
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(slog.New(NewHandler(w, opts.Format, opts.Level)))
	return nopCloser{}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewHandler picks tinter for terminals (or FormatText) and JSON otherwise.
func NewHandler(w io.Writer, format Format, level slog.Level) slog.Handler {
	if format == FormatText || (format == FormatAuto && IsTTY(w)) {
		return tinter.NewHandler(w, &tinter.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

type rotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func openRotating(path string) (*rotatingWriter, error) {
	rotateIfNeeded(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

func rotateIfNeeded(path string) {
	if st, err := os.Stat(path); err == nil && st.Size() > maxSizeBytes {
		rotate(path)
	}
}

// rotate shifts path -> .1 -> .2 -> .3; the oldest is discarded.
func rotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }

// RedactKey masks an API key, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

// Sanitize prepares user text for a log line: control characters are
// escaped and long text is cut to a prefix plus its rune count.
func Sanitize(s string) string {
	runes := []rune(s)
	cut := len(runes) > maxLoggedText
	if cut {
		runes = runes[:maxLoggedText]
	}
	var b strings.Builder
	for _, r := range runes {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	if cut {
		fmt.Fprintf(&b, "…(%d chars)", len([]rune(s)))
	}
	return b.String()
}
