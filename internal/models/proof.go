package models

import (
	"time"

	"github.com/google/uuid"
)

// Proof statuses
const (
	ProofStatusPending      = "pending"
	ProofStatusAccepted     = "accepted"
	ProofStatusRejected     = "rejected"
	ProofStatusAutoAccepted = "auto_accepted"
)

// Proof types
const (
	ProofTypeScreenshot = "screenshot"
	ProofTypeReceipt    = "receipt"
)

// MaxProofResubmits bounds how many times a rejected proof may be replaced.
const MaxProofResubmits = 3

func IsValidProofType(t string) bool {
	return t == ProofTypeScreenshot || t == ProofTypeReceipt
}

// IsProofAccepted treats scheduler auto-acceptance the same as a manual accept.
func IsProofAccepted(status string) bool {
	return status == ProofStatusAccepted || status == ProofStatusAutoAccepted
}

// ProofsDecidable reports whether pending proofs may still be accepted or
// rejected for a swap in the given status. A filed dispute freezes them
// until the arbiter decides; the same rule gates manual review and the
// silent-review sweep.
func ProofsDecidable(swapStatus string) bool {
	return swapStatus == SwapStatusAwaitingProof
}

type Proof struct {
	ID              uuid.UUID `json:"id"`
	SwapID          uuid.UUID `json:"swap_id"`
	SubmitterUserID uuid.UUID `json:"submitter_user_id"`
	ProofType       string    `json:"proof_type"`
	URL             string    `json:"url"`
	Status          string    `json:"status"`
	ReviewDeadline  time.Time `json:"review_deadline"`
	ResubmitCount   int       `json:"resubmit_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CountAcceptedDistinct counts accepted proofs from distinct submitters — the
// completion requirement for a swap. Duplicate accepted proofs from the same
// submitter count once.
func CountAcceptedDistinct(proofs []Proof) int {
	seen := map[uuid.UUID]bool{}
	for _, p := range proofs {
		if IsProofAccepted(p.Status) {
			seen[p.SubmitterUserID] = true
		}
	}
	return len(seen)
}
