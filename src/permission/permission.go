// Package permission reports whether the process holds the two OS grants the
// selection capture needs: reading the accessibility tree and posting or
// listening to synthetic input events.
package permission

import (
	"fmt"
	"strings"
)

// Status is recomputed on every Check; never cache it across user actions.
type Status struct {
	AccessibilityGranted   bool
	InputMonitoringGranted bool
}

// Granted reports whether capture may proceed.
func (s Status) Granted() bool {
	return s.AccessibilityGranted && s.InputMonitoringGranted
}

// Missing lists the human-readable names of the grants that are absent.
func (s Status) Missing() []string {
	var missing []string
	if !s.AccessibilityGranted {
		missing = append(missing, "Accessibility")
	}
	if !s.InputMonitoringGranted {
		missing = append(missing, "Input Monitoring")
	}
	return missing
}

// Message renders the status for the presentation sink.
func (s Status) Message() string {
	var b strings.Builder
	b.WriteString("Missing permissions.\n")
	fmt.Fprintf(&b, "Accessibility: %s\n", grantLabel(s.AccessibilityGranted))
	fmt.Fprintf(&b, "Input Monitoring: %s\n", grantLabel(s.InputMonitoringGranted))
	b.WriteString("Open System Settings and enable access.")
	return b.String()
}

func grantLabel(ok bool) string {
	if ok {
		return "OK"
	}
	return "no access"
}

// Checker is the query half of the gate. Check must not mutate system state
// beyond whatever prompt the OS decides to show.
type Checker interface {
	Check() Status
}

// Gate is the platform permission gate.
type Gate struct{}

// New returns the gate for the running platform.
func New() *Gate { return &Gate{} }

// Check queries both grants.
func (g *Gate) Check() Status {
	return Status{
		AccessibilityGranted:   accessibilityTrusted(false),
		InputMonitoringGranted: listenEventAccess(),
	}
}

// Request asks the OS to show its permission prompts for any grant that is
// missing. Called once at startup; there is no retry.
func (g *Gate) Request() Status {
	st := Status{
		AccessibilityGranted:   accessibilityTrusted(true),
		InputMonitoringGranted: listenEventAccess(),
	}
	if !st.InputMonitoringGranted {
		st.InputMonitoringGranted = requestListenEventAccess()
	}
	return st
}

// Static is a fixed answer, used by tests and headless runs.
type Static Status

func (s Static) Check() Status { return Status(s) }
