package models

import (
	"time"

	"github.com/google/uuid"
)

// Actor types on the audit trail. System entries come from the sweep and
// from auto-transitions; they are never surfaced as caller errors.
const (
	ActorUser   = "user"
	ActorAdmin  = "admin"
	ActorSystem = "system"
)

// AuditLog is one append-only entry in the swap event trail. It is evidence
// for dispute arbitration and the source for client timelines; it never
// drives decisions.
type AuditLog struct {
	ID          uuid.UUID  `json:"id"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
	ActorType   string     `json:"actor_type"`
	Action      string     `json:"action"`
	EntityType  string     `json:"entity_type"`
	EntityID    *uuid.UUID `json:"entity_id,omitempty"`
	Meta        any        `json:"meta,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
