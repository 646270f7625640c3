package services

import (
	"context"
	"errors"
	"testing"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubActiveSwapCounter struct {
	n   int
	err error
}

func (s stubActiveSwapCounter) CountActiveForUser(_ context.Context, _ uuid.UUID) (int, error) {
	return s.n, s.err
}

func TestFillActiveSwaps(t *testing.T) {
	svc := &TrustService{swaps: stubActiveSwapCounter{n: 3}, log: zap.NewNop()}
	p := &models.TrustProfile{UserID: uuid.New()}

	svc.fillActiveSwaps(context.Background(), p)

	if p.ActiveSwaps != 3 {
		t.Errorf("ActiveSwaps = %d, want 3", p.ActiveSwaps)
	}
}

func TestFillActiveSwapsKeepsZeroOnError(t *testing.T) {
	svc := &TrustService{
		swaps: stubActiveSwapCounter{n: 9, err: errors.New("connection reset")},
		log:   zap.NewNop(),
	}
	p := &models.TrustProfile{UserID: uuid.New()}

	svc.fillActiveSwaps(context.Background(), p)

	if p.ActiveSwaps != 0 {
		t.Errorf("ActiveSwaps = %d, want 0 when the count is unavailable", p.ActiveSwaps)
	}
}
