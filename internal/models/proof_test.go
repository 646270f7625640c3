package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestCountAcceptedDistinct(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	tests := []struct {
		name     string
		proofs   []Proof
		expected int
	}{
		{"none", nil, 0},
		{"one pending", []Proof{{SubmitterUserID: a, Status: ProofStatusPending}}, 0},
		{"one accepted", []Proof{{SubmitterUserID: a, Status: ProofStatusAccepted}}, 1},
		{"auto-accept counts", []Proof{{SubmitterUserID: a, Status: ProofStatusAutoAccepted}}, 1},
		{"rejected ignored", []Proof{{SubmitterUserID: a, Status: ProofStatusRejected}}, 0},
		{
			"same submitter twice counts once",
			[]Proof{
				{SubmitterUserID: a, Status: ProofStatusAccepted},
				{SubmitterUserID: a, Status: ProofStatusAutoAccepted},
			},
			1,
		},
		{
			"two distinct submitters",
			[]Proof{
				{SubmitterUserID: a, Status: ProofStatusAccepted},
				{SubmitterUserID: b, Status: ProofStatusAutoAccepted},
			},
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountAcceptedDistinct(tt.proofs); got != tt.expected {
				t.Errorf("CountAcceptedDistinct = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestProofsDecidable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{SwapStatusOffered, false},
		{SwapStatusAcceptedPendingFee, false},
		{SwapStatusLocked, false},
		{SwapStatusAwaitingProof, true},
		{SwapStatusDisputed, false},
		{SwapStatusCompleted, false},
		{SwapStatusFailed, false},
		{SwapStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := ProofsDecidable(tt.status); got != tt.want {
				t.Errorf("ProofsDecidable(%s) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
