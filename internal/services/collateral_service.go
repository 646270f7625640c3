package services

import (
	"context"
	"errors"

	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/models"
	"github.com/billswap/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DisputeRefundPct is the share of forfeited collateral points routed to the
// dispute winner; the rest is burned.
const DisputeRefundPct = 50

type CollateralService struct {
	collateralRepo *repositories.CollateralRepo
	auditRepo      *repositories.AuditRepo
	log            *zap.Logger
}

func NewCollateralService(
	collateralRepo *repositories.CollateralRepo,
	auditRepo *repositories.AuditRepo,
	log *zap.Logger,
) *CollateralService {
	return &CollateralService{
		collateralRepo: collateralRepo,
		auditRepo:      auditRepo,
		log:            log,
	}
}

func (s *CollateralService) GetBalance(ctx context.Context, userID uuid.UUID) (*models.CollateralEntry, error) {
	return s.collateralRepo.GetOrCreate(ctx, userID)
}

// Stake tops up the credit balance available for credit-forfeit agreements.
func (s *CollateralService) Stake(ctx context.Context, userID uuid.UUID, credits int64) (*models.CollateralEntry, error) {
	if credits <= 0 {
		return nil, apperr.Validation("stake amount must be positive")
	}
	if _, err := s.collateralRepo.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.collateralRepo.AddStakedCredits(ctx, userID, credits); err != nil {
		return nil, err
	}
	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "credits_staked",
		EntityType:  "user",
		EntityID:    &userID,
		Meta:        map[string]any{"credits": credits},
	})
	return s.collateralRepo.GetByUserID(ctx, userID)
}

// LockForSwap holds the bill-derived collateral plus any staked credits.
func (s *CollateralService) LockForSwap(ctx context.Context, swapID, userID uuid.UUID, billAmountMinor, stakeCredits int64) error {
	if _, err := s.collateralRepo.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	points := models.LockAmountForBill(billAmountMinor)
	err := s.collateralRepo.Lock(ctx, swapID, userID, points, stakeCredits)
	if errors.Is(err, repositories.ErrInsufficientCollateral) {
		return apperr.InsufficientCollateral("need %d collateral points available", points)
	}
	if err != nil {
		return err
	}

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorSystem,
		Action:      "collateral_locked",
		EntityType:  "swap",
		EntityID:    &swapID,
		Meta:        map[string]any{"points": points, "credits": stakeCredits},
	})
	return nil
}

// ReleaseForSwap unlocks a participant's hold; success adds the stake bonus.
func (s *CollateralService) ReleaseForSwap(ctx context.Context, swapID, userID uuid.UUID, success bool) error {
	if err := s.collateralRepo.Release(ctx, swapID, userID, success); err != nil {
		return err
	}
	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorType:  models.ActorSystem,
		Action:     "collateral_released",
		EntityType: "swap",
		EntityID:   &swapID,
		Meta:       map[string]any{"user_id": userID.String(), "success": success},
	})
	return nil
}

// ForfeitWithRefund seizes the at-fault hold and routes the refund share of
// the forfeited points to the other participant. Burned remainder included
// in the audit entry.
func (s *CollateralService) ForfeitWithRefund(ctx context.Context, swapID, atFaultUserID uuid.UUID, refundTo *uuid.UUID) error {
	points, credits, err := s.collateralRepo.Forfeit(ctx, swapID, atFaultUserID)
	if err != nil {
		return err
	}
	if points == 0 && credits == 0 {
		return nil
	}

	var refund int64
	if refundTo != nil {
		refund = points * DisputeRefundPct / 100
		if err := s.collateralRepo.CreditPoints(ctx, *refundTo, refund); err != nil {
			return err
		}
	}

	meta := map[string]any{
		"at_fault":          atFaultUserID.String(),
		"forfeited_points":  points,
		"forfeited_credits": credits,
		"refund":            refund,
	}
	if refundTo != nil {
		meta["refund_to"] = refundTo.String()
	}
	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorType:  models.ActorSystem,
		Action:     "collateral_forfeited",
		EntityType: "swap",
		EntityID:   &swapID,
		Meta:       meta,
	})
	return nil
}
