// Package events defines the closed set of domain events published on the
// swap stream. Payloads are typed variants behind a stable "type"
// discriminant; Decode is exhaustive over the set, so an unknown type is an
// error rather than a silently-dropped bag of keys.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// StreamSwap is the pub/sub channel all swap lifecycle events go to.
const StreamSwap = "events:swap"

// Event type discriminants.
const (
	TypeSwapStatusChanged = "swap_status_changed"
	TypeTermsProposed     = "terms_proposed"
	TypeTermsAccepted     = "terms_accepted"
	TypeProofSubmitted    = "proof_submitted"
	TypeProofReviewed     = "proof_reviewed"
	TypeDisputeOpened     = "dispute_opened"
	TypeDisputeResolved   = "dispute_resolved"
	TypeTrustChanged      = "trust_changed"
)

// Payload is implemented by every event variant.
type Payload interface {
	EventType() string
}

type SwapStatusChanged struct {
	SwapID    uuid.UUID `json:"swap_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ActorType string    `json:"actor_type"`
}

func (SwapStatusChanged) EventType() string { return TypeSwapStatusChanged }

type TermsProposed struct {
	SwapID   uuid.UUID `json:"swap_id"`
	TermsID  uuid.UUID `json:"terms_id"`
	Proposer uuid.UUID `json:"proposer"`
	Version  int       `json:"version"`
}

func (TermsProposed) EventType() string { return TypeTermsProposed }

type TermsAccepted struct {
	SwapID  uuid.UUID `json:"swap_id"`
	TermsID uuid.UUID `json:"terms_id"`
	Version int       `json:"version"`
}

func (TermsAccepted) EventType() string { return TypeTermsAccepted }

type ProofSubmitted struct {
	SwapID    uuid.UUID `json:"swap_id"`
	ProofID   uuid.UUID `json:"proof_id"`
	Submitter uuid.UUID `json:"submitter"`
}

func (ProofSubmitted) EventType() string { return TypeProofSubmitted }

type ProofReviewed struct {
	SwapID  uuid.UUID `json:"swap_id"`
	ProofID uuid.UUID `json:"proof_id"`
	Status  string    `json:"status"`
}

func (ProofReviewed) EventType() string { return TypeProofReviewed }

type DisputeOpened struct {
	SwapID    uuid.UUID `json:"swap_id"`
	DisputeID uuid.UUID `json:"dispute_id"`
	Reporter  uuid.UUID `json:"reporter"`
	Reason    string    `json:"reason"`
}

func (DisputeOpened) EventType() string { return TypeDisputeOpened }

type DisputeResolved struct {
	SwapID    uuid.UUID  `json:"swap_id"`
	DisputeID uuid.UUID  `json:"dispute_id"`
	AtFault   *uuid.UUID `json:"at_fault,omitempty"`
	Dismissed bool       `json:"dismissed"`
}

func (DisputeResolved) EventType() string { return TypeDisputeResolved }

type TrustChanged struct {
	UserID   uuid.UUID `json:"user_id"`
	SwapID   uuid.UUID `json:"swap_id"`
	Outcome  string    `json:"outcome"`
	Delta    int       `json:"delta"`
	NewScore int       `json:"new_score"`
	NewTier  int       `json:"new_tier"`
}

func (TrustChanged) EventType() string { return TypeTrustChanged }

// Event is the wire envelope: discriminant plus raw payload.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap builds an envelope from a typed payload.
func Wrap(p Payload) (Event, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: p.EventType(), Payload: raw}, nil
}

// Decode turns an envelope back into its typed variant.
func Decode(e Event) (Payload, error) {
	var p Payload
	switch e.Type {
	case TypeSwapStatusChanged:
		p = &SwapStatusChanged{}
	case TypeTermsProposed:
		p = &TermsProposed{}
	case TypeTermsAccepted:
		p = &TermsAccepted{}
	case TypeProofSubmitted:
		p = &ProofSubmitted{}
	case TypeProofReviewed:
		p = &ProofReviewed{}
	case TypeDisputeOpened:
		p = &DisputeOpened{}
	case TypeDisputeResolved:
		p = &DisputeResolved{}
	case TypeTrustChanged:
		p = &TrustChanged{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Payload, p); err != nil {
		return nil, err
	}
	return p, nil
}

type Publisher interface {
	Publish(ctx context.Context, stream string, payload Payload) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
