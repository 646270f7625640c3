package models

import (
	"time"

	"github.com/google/uuid"
)

// Swap types
const (
	SwapTypeTwoSided       = "two_sided"
	SwapTypeOneSidedAssist = "one_sided_assist"
)

// Swap statuses
const (
	SwapStatusOffered            = "offered"
	SwapStatusAcceptedPendingFee = "accepted_pending_fee"
	SwapStatusLocked             = "locked"
	SwapStatusAwaitingProof      = "awaiting_proof"
	SwapStatusCompleted          = "completed"
	SwapStatusFailed             = "failed"
	SwapStatusDisputed           = "disputed"
	SwapStatusCancelled          = "cancelled"
)

// Valid state transitions: from -> []to.
// A disputed swap only leaves disputed through arbiter action: resolution
// terminates to failed, dismissal reverts to awaiting_proof. failed -> disputed
// covers disputes filed after a failure, within the filing window.
var ValidSwapTransitions = map[string][]string{
	SwapStatusOffered:            {SwapStatusAcceptedPendingFee, SwapStatusCancelled},
	SwapStatusAcceptedPendingFee: {SwapStatusLocked, SwapStatusCancelled},
	SwapStatusLocked:             {SwapStatusAwaitingProof, SwapStatusCancelled},
	SwapStatusAwaitingProof:      {SwapStatusCompleted, SwapStatusFailed, SwapStatusDisputed},
	SwapStatusDisputed:           {SwapStatusFailed, SwapStatusAwaitingProof},
	SwapStatusFailed:             {SwapStatusDisputed},
	SwapStatusCompleted:          {},
	SwapStatusCancelled:          {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidSwapTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist for status.
func IsTerminal(status string) bool {
	return len(ValidSwapTransitions[status]) == 0
}

// IsCancellable reports whether a participant may still cancel. Cancellation
// is only allowed before proof collection starts and never on a disputed swap.
func IsCancellable(status string) bool {
	return status == SwapStatusOffered ||
		status == SwapStatusAcceptedPendingFee ||
		status == SwapStatusLocked
}

func IsValidSwapType(t string) bool {
	return t == SwapTypeTwoSided || t == SwapTypeOneSidedAssist
}

type Swap struct {
	ID                 uuid.UUID  `json:"id"`
	InitiatorUserID    uuid.UUID  `json:"initiator_user_id"`
	CounterpartyUserID *uuid.UUID `json:"counterparty_user_id,omitempty"`
	InitiatorBillID    uuid.UUID  `json:"initiator_bill_id"`
	CounterpartyBillID *uuid.UUID `json:"counterparty_bill_id,omitempty"`
	SwapType           string     `json:"swap_type"`
	Status             string     `json:"status"`
	InitiatorFeeMinor  int64      `json:"initiator_fee_minor"`
	CounterpartyFeeMinor int64    `json:"counterparty_fee_minor"`
	InitiatorFeePaid   bool       `json:"initiator_fee_paid"`
	CounterpartyFeePaid bool      `json:"counterparty_fee_paid"`
	AcceptDeadline     time.Time  `json:"accept_deadline"`
	ProofDueAt         *time.Time `json:"proof_due_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	FailedAt           *time.Time `json:"failed_at,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsParticipant reports whether userID is one of the two sides of the swap.
func (s *Swap) IsParticipant(userID uuid.UUID) bool {
	if s.InitiatorUserID == userID {
		return true
	}
	return s.CounterpartyUserID != nil && *s.CounterpartyUserID == userID
}

// OtherParticipant returns the counterpart of userID, if both sides are set.
func (s *Swap) OtherParticipant(userID uuid.UUID) (uuid.UUID, bool) {
	if s.CounterpartyUserID == nil {
		return uuid.Nil, false
	}
	switch userID {
	case s.InitiatorUserID:
		return *s.CounterpartyUserID, true
	case *s.CounterpartyUserID:
		return s.InitiatorUserID, true
	}
	return uuid.Nil, false
}

// FeesSettled reports whether every fee required for this swap is paid.
// A one-sided assist only charges the assisted side (the initiator).
func (s *Swap) FeesSettled() bool {
	if s.SwapType == SwapTypeOneSidedAssist {
		return s.InitiatorFeePaid
	}
	return s.InitiatorFeePaid && s.CounterpartyFeePaid
}

// RequiredProofCount is the number of accepted proofs, from distinct
// submitters, needed before the swap can complete.
func (s *Swap) RequiredProofCount() int {
	if s.SwapType == SwapTypeOneSidedAssist {
		return 1
	}
	return 2
}

// SwapWithBills embeds Swap and adds bill summaries to avoid N+1 queries.
type SwapWithBills struct {
	Swap
	InitiatorBillAmount    *int64  `json:"initiator_bill_amount,omitempty"`
	InitiatorBillCategory  *string `json:"initiator_bill_category,omitempty"`
	CounterpartyBillAmount *int64  `json:"counterparty_bill_amount,omitempty"`
	CounterpartyBillCategory *string `json:"counterparty_bill_category,omitempty"`
}
