package models

import (
	"time"

	"github.com/google/uuid"
)

// Terms statuses
const (
	TermsStatusProposed  = "proposed"
	TermsStatusCountered = "countered"
	TermsStatusAccepted  = "accepted"
	TermsStatusRejected  = "rejected"
	TermsStatusExpired   = "expired"
)

// Fallback penalty types, agreed in terms and applied on non-completion.
const (
	PenaltyTrustPoints     = "trust_points"
	PenaltyEligibilityLock = "eligibility_lock"
	PenaltyCreditForfeit   = "credit_forfeit"
)

// MaxTermsVersions caps renegotiation: the initial proposal plus two counters.
const MaxTermsVersions = 3

func IsValidPenaltyType(t string) bool {
	return t == PenaltyTrustPoints || t == PenaltyEligibilityLock || t == PenaltyCreditForfeit
}

// Terms is one immutable version of the negotiated deal for a swap.
// A counter-offer inserts a new row with version+1; rows are never mutated
// except for the status flips proposed->countered/accepted/rejected/expired.
type Terms struct {
	ID                   uuid.UUID `json:"id"`
	SwapID               uuid.UUID `json:"swap_id"`
	ProposerUserID       uuid.UUID `json:"proposer_user_id"`
	Version              int       `json:"version"`
	InitiatorFeeMinor    int64     `json:"initiator_fee_minor"`
	CounterpartyFeeMinor int64     `json:"counterparty_fee_minor"`
	ProofWindowHours     int       `json:"proof_window_hours"`
	FallbackPenalty      string    `json:"fallback_penalty"`
	Status               string    `json:"status"`
	ExpiresAt            time.Time `json:"expires_at"`
	CreatedAt            time.Time `json:"created_at"`
}

// IsActionable reports whether the terms version can still be accepted,
// rejected or countered at the given instant.
func (t *Terms) IsActionable(now time.Time) bool {
	return t.Status == TermsStatusProposed && now.Before(t.ExpiresAt)
}

// CanCounter reports whether another version may be created on top of t.
func (t *Terms) CanCounter() bool {
	return t.Version < MaxTermsVersions
}
