package services

import (
	"context"
	"time"

	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/models"
	"github.com/billswap/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BillService struct {
	billRepo  *repositories.BillRepo
	trustRepo *repositories.TrustRepo
	auditRepo *repositories.AuditRepo
	log       *zap.Logger
}

func NewBillService(
	billRepo *repositories.BillRepo,
	trustRepo *repositories.TrustRepo,
	auditRepo *repositories.AuditRepo,
	log *zap.Logger,
) *BillService {
	return &BillService{
		billRepo:  billRepo,
		trustRepo: trustRepo,
		auditRepo: auditRepo,
		log:       log,
	}
}

type CreateBillInput struct {
	AmountMinor int64
	Category    string
	Provider    string
	DueDate     *time.Time
}

func (s *BillService) CreateBill(ctx context.Context, userID uuid.UUID, input CreateBillInput) (*models.Bill, error) {
	if input.AmountMinor <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if !models.IsValidBillCategory(input.Category) {
		return nil, apperr.Validation("unknown bill category %q", input.Category)
	}
	if input.Provider == "" {
		return nil, apperr.Validation("provider is required")
	}
	if input.DueDate != nil && input.DueDate.Before(time.Now()) {
		return nil, apperr.Validation("due date is in the past")
	}

	profile, err := s.trustRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cap := models.MaxBillAmountForTier(profile.Tier); input.AmountMinor > cap {
		return nil, apperr.Validation("bill amount exceeds tier %d cap of %d", profile.Tier, cap)
	}

	bill := &models.Bill{
		UserID:      userID,
		AmountMinor: input.AmountMinor,
		Category:    input.Category,
		Provider:    input.Provider,
		DueDate:     input.DueDate,
		Status:      models.BillStatusActive,
	}
	if err := s.billRepo.Create(ctx, bill); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "bill_created",
		EntityType:  "bill",
		EntityID:    &bill.ID,
		Meta:        map[string]any{"amount_minor": bill.AmountMinor, "category": bill.Category},
	})
	return bill, nil
}

func (s *BillService) GetBill(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "bill not found")
	}
	return bill, nil
}

func (s *BillService) ListBills(ctx context.Context, f repositories.BillFilter) ([]models.Bill, error) {
	return s.billRepo.List(ctx, f)
}

type UpdateBillInput struct {
	AmountMinor *int64
	Provider    *string
	DueDate     *time.Time
}

// UpdateBill edits a bill that is not yet committed to a swap.
func (s *BillService) UpdateBill(ctx context.Context, userID, billID uuid.UUID, input UpdateBillInput) (*models.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "bill not found")
	}
	if bill.UserID != userID {
		return nil, apperr.Unauthorized("only the bill owner can edit it")
	}
	if bill.Status != models.BillStatusDraft && bill.Status != models.BillStatusActive {
		return nil, apperr.InvalidState("bill in status %s cannot be edited", bill.Status)
	}

	if input.AmountMinor != nil {
		if *input.AmountMinor <= 0 {
			return nil, apperr.Validation("amount must be positive")
		}
		bill.AmountMinor = *input.AmountMinor
	}
	if input.Provider != nil {
		bill.Provider = *input.Provider
	}
	if input.DueDate != nil {
		bill.DueDate = input.DueDate
	}
	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}
