package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute statuses
const (
	DisputeStatusOpen          = "open"
	DisputeStatusInvestigating = "investigating"
	DisputeStatusResolved      = "resolved"
	DisputeStatusDismissed     = "dismissed"
)

// Dispute reasons
const (
	DisputeReasonNoPayment      = "no_payment"
	DisputeReasonFakeProof      = "fake_proof"
	DisputeReasonPartialPayment = "partial_payment"
	DisputeReasonHarassment     = "harassment"
	DisputeReasonOther          = "other"
)

var disputeReasons = map[string]bool{
	DisputeReasonNoPayment:      true,
	DisputeReasonFakeProof:      true,
	DisputeReasonPartialPayment: true,
	DisputeReasonHarassment:     true,
	DisputeReasonOther:          true,
}

func IsValidDisputeReason(r string) bool {
	return disputeReasons[r]
}

// DisputableSwapStatuses are the swap states a participant may file from.
var DisputableSwapStatuses = map[string]bool{
	SwapStatusAwaitingProof: true,
	SwapStatusFailed:        true,
}

type Dispute struct {
	ID             uuid.UUID  `json:"id"`
	SwapID         uuid.UUID  `json:"swap_id"`
	ReporterUserID uuid.UUID  `json:"reporter_user_id"`
	ReportedUserID uuid.UUID  `json:"reported_user_id"`
	Reason         string     `json:"reason"`
	Details        *string    `json:"details,omitempty"`
	Status         string     `json:"status"`
	AtFaultUserID  *uuid.UUID `json:"at_fault_user_id,omitempty"`
	Resolution     *string    `json:"resolution,omitempty"`
	FilingDeadline time.Time  `json:"filing_deadline"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// IsOpen reports whether the dispute still awaits an arbiter decision.
func (d *Dispute) IsOpen() bool {
	return d.Status == DisputeStatusOpen || d.Status == DisputeStatusInvestigating
}
