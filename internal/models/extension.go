package models

import (
	"time"

	"github.com/google/uuid"
)

// Deadline extension statuses
const (
	ExtensionStatusPending  = "pending"
	ExtensionStatusApproved = "approved"
	ExtensionStatusDeclined = "declined"
	ExtensionStatusExpired  = "expired"
)

// MaxExtensionHours bounds a single proof-deadline extension request.
const MaxExtensionHours = 48

// DeadlineExtension is a request by one participant to push the swap's
// proof deadline out. The counterparty must respond before RespondBy or the
// sweep expires the request.
type DeadlineExtension struct {
	ID              uuid.UUID  `json:"id"`
	SwapID          uuid.UUID  `json:"swap_id"`
	RequesterUserID uuid.UUID  `json:"requester_user_id"`
	ExtraHours      int        `json:"extra_hours"`
	Status          string     `json:"status"`
	RespondBy       time.Time  `json:"respond_by"`
	CreatedAt       time.Time  `json:"created_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
}
