package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestWrapDecodeExhaustive(t *testing.T) {
	swapID := uuid.New()
	userID := uuid.New()

	payloads := []Payload{
		SwapStatusChanged{SwapID: swapID, OldStatus: "offered", NewStatus: "cancelled", ActorType: "system"},
		TermsProposed{SwapID: swapID, TermsID: uuid.New(), Proposer: userID, Version: 2},
		TermsAccepted{SwapID: swapID, TermsID: uuid.New(), Version: 1},
		ProofSubmitted{SwapID: swapID, ProofID: uuid.New(), Submitter: userID},
		ProofReviewed{SwapID: swapID, ProofID: uuid.New(), Status: "auto_accepted"},
		DisputeOpened{SwapID: swapID, DisputeID: uuid.New(), Reporter: userID, Reason: "no_payment"},
		DisputeResolved{SwapID: swapID, DisputeID: uuid.New(), AtFault: &userID},
		TrustChanged{UserID: userID, SwapID: swapID, Outcome: "completed", Delta: 23, NewScore: 123, NewTier: 1},
	}

	for _, p := range payloads {
		t.Run(p.EventType(), func(t *testing.T) {
			event, err := Wrap(p)
			if err != nil {
				t.Fatalf("Wrap: %v", err)
			}
			if event.Type != p.EventType() {
				t.Errorf("envelope type %q, want %q", event.Type, p.EventType())
			}

			decoded, err := Decode(event)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if decoded.EventType() != p.EventType() {
				t.Errorf("decoded type %q, want %q", decoded.EventType(), p.EventType())
			}
		})
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	event := Event{Type: "mystery", Payload: json.RawMessage(`{}`)}
	if _, err := Decode(event); err == nil {
		t.Error("expected an error for an unknown discriminant")
	}
}

func TestDecodePreservesFields(t *testing.T) {
	swapID := uuid.New()
	event, err := Wrap(SwapStatusChanged{SwapID: swapID, OldStatus: "locked", NewStatus: "awaiting_proof", ActorType: "user"})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	decoded, err := Decode(event)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sc, ok := decoded.(*SwapStatusChanged)
	if !ok {
		t.Fatalf("decoded to %T, want *SwapStatusChanged", decoded)
	}
	if sc.SwapID != swapID || sc.OldStatus != "locked" || sc.NewStatus != "awaiting_proof" {
		t.Errorf("fields not preserved: %+v", sc)
	}
}
