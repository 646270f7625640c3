package services

import (
	"testing"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
)

func TestCanViewDispute(t *testing.T) {
	initiator := uuid.New()
	counterparty := uuid.New()
	stranger := uuid.New()
	swap := &models.Swap{InitiatorUserID: initiator, CounterpartyUserID: &counterparty}

	tests := []struct {
		name    string
		userID  uuid.UUID
		arbiter bool
		want    bool
	}{
		{name: "initiator can view", userID: initiator, want: true},
		{name: "counterparty can view", userID: counterparty, want: true},
		{name: "stranger cannot view", userID: stranger, want: false},
		{name: "arbiter can view any dispute", userID: stranger, arbiter: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canViewDispute(swap, tt.userID, tt.arbiter); got != tt.want {
				t.Errorf("canViewDispute() = %v, want %v", got, tt.want)
			}
		})
	}
}
