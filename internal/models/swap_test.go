package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{SwapStatusOffered, SwapStatusAcceptedPendingFee, true},
		{SwapStatusAcceptedPendingFee, SwapStatusLocked, true},
		{SwapStatusLocked, SwapStatusAwaitingProof, true},
		{SwapStatusAwaitingProof, SwapStatusCompleted, true},
		{SwapStatusAwaitingProof, SwapStatusFailed, true},

		// Disputes
		{SwapStatusAwaitingProof, SwapStatusDisputed, true},
		{SwapStatusFailed, SwapStatusDisputed, true},
		{SwapStatusDisputed, SwapStatusFailed, true},
		{SwapStatusDisputed, SwapStatusAwaitingProof, true},
		{SwapStatusDisputed, SwapStatusCompleted, false},
		{SwapStatusDisputed, SwapStatusCancelled, false},

		// Cancellation paths
		{SwapStatusOffered, SwapStatusCancelled, true},
		{SwapStatusAcceptedPendingFee, SwapStatusCancelled, true},
		{SwapStatusLocked, SwapStatusCancelled, true},
		{SwapStatusAwaitingProof, SwapStatusCancelled, false},

		// Invalid transitions
		{SwapStatusOffered, SwapStatusAwaitingProof, false},
		{SwapStatusOffered, SwapStatusCompleted, false},
		{SwapStatusCompleted, SwapStatusFailed, false},
		{SwapStatusCompleted, SwapStatusDisputed, false},
		{SwapStatusCancelled, SwapStatusOffered, false},
		{SwapStatusCancelled, SwapStatusDisputed, false},
		{"nonexistent", SwapStatusOffered, false},
		{SwapStatusOffered, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		SwapStatusOffered, SwapStatusAcceptedPendingFee, SwapStatusLocked,
		SwapStatusAwaitingProof, SwapStatusCompleted, SwapStatusFailed,
		SwapStatusDisputed, SwapStatusCancelled,
	}

	for _, status := range allStatuses {
		if _, ok := ValidSwapTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidSwapTransitions map", status)
		}
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	// failed is deliberately not terminal here: a dispute can still be
	// filed against a failure inside the filing window.
	terminal := []string{SwapStatusCompleted, SwapStatusCancelled}
	for _, status := range terminal {
		transitions := ValidSwapTransitions[status]
		if len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
		if !IsTerminal(status) {
			t.Errorf("IsTerminal(%q) = false, want true", status)
		}
	}
}

func TestIsCancellable(t *testing.T) {
	cancellable := []string{SwapStatusOffered, SwapStatusAcceptedPendingFee, SwapStatusLocked}
	for _, s := range cancellable {
		if !IsCancellable(s) {
			t.Errorf("IsCancellable(%q) = false, want true", s)
		}
	}
	notCancellable := []string{SwapStatusAwaitingProof, SwapStatusDisputed, SwapStatusCompleted, SwapStatusFailed, SwapStatusCancelled}
	for _, s := range notCancellable {
		if IsCancellable(s) {
			t.Errorf("IsCancellable(%q) = true, want false", s)
		}
	}
}

func TestFeesSettled(t *testing.T) {
	tests := []struct {
		name     string
		swapType string
		initPaid bool
		cptyPaid bool
		expected bool
	}{
		{"two-sided both paid", SwapTypeTwoSided, true, true, true},
		{"two-sided one paid", SwapTypeTwoSided, true, false, false},
		{"two-sided none paid", SwapTypeTwoSided, false, false, false},
		{"assist initiator paid", SwapTypeOneSidedAssist, true, false, true},
		{"assist initiator unpaid", SwapTypeOneSidedAssist, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Swap{SwapType: tt.swapType, InitiatorFeePaid: tt.initPaid, CounterpartyFeePaid: tt.cptyPaid}
			if got := s.FeesSettled(); got != tt.expected {
				t.Errorf("FeesSettled() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRequiredProofCount(t *testing.T) {
	two := Swap{SwapType: SwapTypeTwoSided}
	if n := two.RequiredProofCount(); n != 2 {
		t.Errorf("two-sided RequiredProofCount() = %d, want 2", n)
	}
	assist := Swap{SwapType: SwapTypeOneSidedAssist}
	if n := assist.RequiredProofCount(); n != 1 {
		t.Errorf("assist RequiredProofCount() = %d, want 1", n)
	}
}

func TestParticipantHelpers(t *testing.T) {
	initiator := uuid.New()
	counterparty := uuid.New()
	stranger := uuid.New()

	s := Swap{InitiatorUserID: initiator, CounterpartyUserID: &counterparty}

	if !s.IsParticipant(initiator) || !s.IsParticipant(counterparty) {
		t.Error("participants not recognized")
	}
	if s.IsParticipant(stranger) {
		t.Error("stranger recognized as participant")
	}

	other, ok := s.OtherParticipant(initiator)
	if !ok || other != counterparty {
		t.Errorf("OtherParticipant(initiator) = %v, %v", other, ok)
	}
	other, ok = s.OtherParticipant(counterparty)
	if !ok || other != initiator {
		t.Errorf("OtherParticipant(counterparty) = %v, %v", other, ok)
	}
	if _, ok := s.OtherParticipant(stranger); ok {
		t.Error("OtherParticipant(stranger) should not resolve")
	}

	unmatched := Swap{InitiatorUserID: initiator}
	if _, ok := unmatched.OtherParticipant(initiator); ok {
		t.Error("OtherParticipant on unmatched swap should not resolve")
	}
}
