package services

import (
	"testing"

	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/models"
)

func TestValidateTermsInput(t *testing.T) {
	svc := &TermsService{}

	valid := ProposeTermsInput{
		InitiatorFeeMinor:    500,
		CounterpartyFeeMinor: 500,
		ProofWindowHours:     48,
		FallbackPenalty:      models.PenaltyTrustPoints,
	}

	tests := []struct {
		name   string
		mutate func(*ProposeTermsInput)
		wantOK bool
	}{
		{"valid", func(in *ProposeTermsInput) {}, true},
		{"zero fees allowed", func(in *ProposeTermsInput) {
			in.InitiatorFeeMinor = 0
			in.CounterpartyFeeMinor = 0
		}, true},
		{"negative initiator fee", func(in *ProposeTermsInput) { in.InitiatorFeeMinor = -1 }, false},
		{"negative counterparty fee", func(in *ProposeTermsInput) { in.CounterpartyFeeMinor = -1 }, false},
		{"zero proof window", func(in *ProposeTermsInput) { in.ProofWindowHours = 0 }, false},
		{"proof window over two weeks", func(in *ProposeTermsInput) { in.ProofWindowHours = 24*14 + 1 }, false},
		{"proof window at two weeks", func(in *ProposeTermsInput) { in.ProofWindowHours = 24 * 14 }, true},
		{"eligibility lock penalty", func(in *ProposeTermsInput) { in.FallbackPenalty = models.PenaltyEligibilityLock }, true},
		{"credit forfeit penalty", func(in *ProposeTermsInput) { in.FallbackPenalty = models.PenaltyCreditForfeit }, true},
		{"unknown penalty", func(in *ProposeTermsInput) { in.FallbackPenalty = "public_shaming" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := svc.validateInput(in)
			if tt.wantOK && err != nil {
				t.Errorf("validateInput() = %v, want nil", err)
			}
			if !tt.wantOK {
				if err == nil {
					t.Fatal("validateInput() = nil, want validation error")
				}
				if apperr.KindOf(err) != apperr.KindValidationFailed {
					t.Errorf("validateInput() kind = %s, want validation_failed", apperr.KindOf(err))
				}
			}
		})
	}
}
