// Package capture extracts the user's current text selection from the
// foreground application: accessibility first, then a synthesized copy with
// a clipboard diff, then a user-confirmed use of whatever the clipboard holds.
package capture

import (
	"errors"
	"fmt"
	"strings"

	"select-translate/src/permission"
)

// Source records which path produced a Result.
type Source int

const (
	SourceNone Source = iota
	SourceAccessibility
	SourceClipboardDiff
	SourceClipboardFallbackConfirmed
	// SourceClipboard is the explicit "translate clipboard" menu path.
	SourceClipboard
)

func (s Source) String() string {
	switch s {
	case SourceAccessibility:
		return "accessibility"
	case SourceClipboardDiff:
		return "clipboard-diff"
	case SourceClipboardFallbackConfirmed:
		return "clipboard-confirmed"
	case SourceClipboard:
		return "clipboard"
	default:
		return "none"
	}
}

// Result is produced once per capture cycle and never modified.
type Result struct {
	Text   string
	Source Source
	// Recovered is set when the copy landed after the poll window closed and
	// the text was picked up from the clipboard afterwards.
	Recovered bool
}

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrCaptureEmpty     = errors.New("no selection captured")
	// ErrFallbackDeclined is an ErrCaptureEmpty where the user refused the
	// clipboard fallback.
	ErrFallbackDeclined = fmt.Errorf("%w: clipboard fallback declined", ErrCaptureEmpty)
	// ErrClipboardEmpty is an ErrCaptureEmpty from the explicit clipboard
	// path.
	ErrClipboardEmpty = fmt.Errorf("%w: clipboard is empty", ErrCaptureEmpty)
)

// PermissionError carries the status that blocked the capture.
type PermissionError struct {
	Status permission.Status
}

func (e *PermissionError) Error() string {
	return "permission denied: missing " + strings.Join(e.Status.Missing(), ", ")
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

func blank(s string) bool { return strings.TrimSpace(s) == "" }
