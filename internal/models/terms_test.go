package models

import (
	"testing"
	"time"
)

func TestTermsIsActionable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		status   string
		expires  time.Time
		expected bool
	}{
		{"proposed and fresh", TermsStatusProposed, now.Add(time.Hour), true},
		{"proposed but expired", TermsStatusProposed, now.Add(-time.Minute), false},
		{"already accepted", TermsStatusAccepted, now.Add(time.Hour), false},
		{"already countered", TermsStatusCountered, now.Add(time.Hour), false},
		{"rejected", TermsStatusRejected, now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := Terms{Status: tt.status, ExpiresAt: tt.expires}
			if got := terms.IsActionable(now); got != tt.expected {
				t.Errorf("IsActionable = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTermsCanCounter(t *testing.T) {
	for v := 1; v < MaxTermsVersions; v++ {
		terms := Terms{Version: v}
		if !terms.CanCounter() {
			t.Errorf("version %d should allow a counter", v)
		}
	}
	capped := Terms{Version: MaxTermsVersions}
	if capped.CanCounter() {
		t.Errorf("version %d must not allow a counter", MaxTermsVersions)
	}
}
