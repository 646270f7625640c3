package services

import (
	"testing"
	"time"

	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
)

func TestProofWindow(t *testing.T) {
	svc := &SwapService{cfg: &config.Config{ProofWindow: 72 * time.Hour}}

	tests := []struct {
		name  string
		terms *models.Terms
		want  time.Duration
	}{
		{name: "no accepted terms falls back to default", terms: nil, want: 72 * time.Hour},
		{name: "negotiated window wins", terms: &models.Terms{ProofWindowHours: 24}, want: 24 * time.Hour},
		{name: "zero hours falls back to default", terms: &models.Terms{ProofWindowHours: 0}, want: 72 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.proofWindow(tt.terms); got != tt.want {
				t.Errorf("proofWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequiredSubmitters(t *testing.T) {
	initiator := uuid.New()
	counterparty := uuid.New()

	tests := []struct {
		name string
		swap *models.Swap
		want []uuid.UUID
	}{
		{
			name: "two sided requires both",
			swap: &models.Swap{
				SwapType:           models.SwapTypeTwoSided,
				InitiatorUserID:    initiator,
				CounterpartyUserID: &counterparty,
			},
			want: []uuid.UUID{initiator, counterparty},
		},
		{
			name: "assist requires counterparty only",
			swap: &models.Swap{
				SwapType:           models.SwapTypeOneSidedAssist,
				InitiatorUserID:    initiator,
				CounterpartyUserID: &counterparty,
			},
			want: []uuid.UUID{counterparty},
		},
		{
			name: "assist without counterparty requires nobody",
			swap: &models.Swap{
				SwapType:        models.SwapTypeOneSidedAssist,
				InitiatorUserID: initiator,
			},
			want: nil,
		},
		{
			name: "open offer requires only the initiator",
			swap: &models.Swap{
				SwapType:        models.SwapTypeTwoSided,
				InitiatorUserID: initiator,
			},
			want: []uuid.UUID{initiator},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := requiredSubmitters(tt.swap)
			if len(got) != len(tt.want) {
				t.Fatalf("requiredSubmitters() returned %d ids, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("requiredSubmitters()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParticipants(t *testing.T) {
	initiator := uuid.New()
	counterparty := uuid.New()

	open := &models.Swap{InitiatorUserID: initiator}
	if got := participants(open); len(got) != 1 || got[0] != initiator {
		t.Errorf("participants(open offer) = %v, want [%s]", got, initiator)
	}

	taken := &models.Swap{InitiatorUserID: initiator, CounterpartyUserID: &counterparty}
	got := participants(taken)
	if len(got) != 2 || got[0] != initiator || got[1] != counterparty {
		t.Errorf("participants(taken swap) = %v, want [%s %s]", got, initiator, counterparty)
	}
}

func TestOwedAmount(t *testing.T) {
	initiator := uuid.New()
	counterparty := uuid.New()
	initiatorAmount := int64(12000)
	counterpartyAmount := int64(8000)

	svc := &SwapService{}

	twoSided := &models.SwapWithBills{
		Swap: models.Swap{
			SwapType:           models.SwapTypeTwoSided,
			InitiatorUserID:    initiator,
			CounterpartyUserID: &counterparty,
		},
		InitiatorBillAmount:    &initiatorAmount,
		CounterpartyBillAmount: &counterpartyAmount,
	}

	// Each side owes the other's bill.
	if got := svc.owedAmount(twoSided, counterparty); got != initiatorAmount {
		t.Errorf("owedAmount(counterparty) = %d, want %d", got, initiatorAmount)
	}
	if got := svc.owedAmount(twoSided, initiator); got != counterpartyAmount {
		t.Errorf("owedAmount(initiator) = %d, want %d", got, counterpartyAmount)
	}

	assist := &models.SwapWithBills{
		Swap: models.Swap{
			SwapType:           models.SwapTypeOneSidedAssist,
			InitiatorUserID:    initiator,
			CounterpartyUserID: &counterparty,
		},
		InitiatorBillAmount: &initiatorAmount,
	}

	// In an assist the helper owes the initiator's bill; the initiator has
	// no counterpart bill, so exposure falls back to their own amount.
	if got := svc.owedAmount(assist, counterparty); got != initiatorAmount {
		t.Errorf("owedAmount(assist helper) = %d, want %d", got, initiatorAmount)
	}
	if got := svc.owedAmount(assist, initiator); got != initiatorAmount {
		t.Errorf("owedAmount(assist initiator) = %d, want %d", got, initiatorAmount)
	}
}
