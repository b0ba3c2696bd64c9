package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMissing(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		granted bool
		missing []string
	}{
		{"both granted", Status{true, true}, true, nil},
		{"no accessibility", Status{false, true}, false, []string{"Accessibility"}},
		{"no input", Status{true, false}, false, []string{"Input Monitoring"}},
		{"none", Status{}, false, []string{"Accessibility", "Input Monitoring"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.granted, tt.status.Granted())
			assert.Equal(t, tt.missing, tt.status.Missing())
		})
	}
}

func TestStatusMessageNamesEachGrant(t *testing.T) {
	msg := Status{AccessibilityGranted: true}.Message()
	assert.Contains(t, msg, "Accessibility: OK")
	assert.Contains(t, msg, "Input Monitoring: no access")
}

func TestStaticChecker(t *testing.T) {
	var c Checker = Static{AccessibilityGranted: true, InputMonitoringGranted: true}
	assert.True(t, c.Check().Granted())
}
