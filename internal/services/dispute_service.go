package services

import (
	"context"
	"time"

	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/events"
	"github.com/billswap/backend/internal/models"
	"github.com/billswap/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DisputeService struct {
	disputeRepo   *repositories.DisputeRepo
	swapRepo      *repositories.SwapRepo
	auditRepo     *repositories.AuditRepo
	trustSvc      *TrustService
	collateralSvc *CollateralService
	swapSvc       *SwapService
	notifyClient  *NotifyClient
	publisher     events.Publisher
	cfg           *config.Config
	log           *zap.Logger
}

func NewDisputeService(
	disputeRepo *repositories.DisputeRepo,
	swapRepo *repositories.SwapRepo,
	auditRepo *repositories.AuditRepo,
	trustSvc *TrustService,
	collateralSvc *CollateralService,
	swapSvc *SwapService,
	notifyClient *NotifyClient,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *DisputeService {
	return &DisputeService{
		disputeRepo:   disputeRepo,
		swapRepo:      swapRepo,
		auditRepo:     auditRepo,
		trustSvc:      trustSvc,
		collateralSvc: collateralSvc,
		swapSvc:       swapSvc,
		notifyClient:  notifyClient,
		publisher:     publisher,
		cfg:           cfg,
		log:           log,
	}
}

type FileDisputeInput struct {
	Reason  string
	Details *string
}

// File opens a dispute on a swap in proof collection or recently failed,
// inside the filing window. The swap freezes in disputed until an arbiter
// decides.
func (s *DisputeService) File(ctx context.Context, swapID, userID uuid.UUID, input FileDisputeInput) (*models.Dispute, error) {
	if !models.IsValidDisputeReason(input.Reason) {
		return nil, apperr.Validation("unknown dispute reason %q", input.Reason)
	}

	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	if !models.DisputableSwapStatuses[swap.Status] {
		return nil, apperr.InvalidState("swap in status %s cannot be disputed", swap.Status)
	}
	if swap.Status == models.SwapStatusFailed && swap.FailedAt != nil {
		deadline := swap.FailedAt.Add(s.cfg.DisputeFilingWindow)
		if time.Now().After(deadline) {
			return nil, apperr.Expired("dispute filing window closed at %s", deadline.Format(time.RFC3339))
		}
	}

	existing, err := s.disputeRepo.GetOpenBySwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("a dispute is already open for this swap")
	}

	reported, ok := swap.OtherParticipant(userID)
	if !ok {
		return nil, apperr.InvalidState("swap has no counterparty to dispute against")
	}

	if err := s.swapSvc.transition(ctx, swap, models.SwapStatusDisputed, &userID, models.ActorUser); err != nil {
		return nil, err
	}

	dispute := &models.Dispute{
		SwapID:         swap.ID,
		ReporterUserID: userID,
		ReportedUserID: reported,
		Reason:         input.Reason,
		Details:        input.Details,
		Status:         models.DisputeStatusOpen,
		FilingDeadline: time.Now().Add(s.cfg.DisputeFilingWindow),
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "dispute_filed",
		EntityType:  "swap",
		EntityID:    &swap.ID,
		Meta:        map[string]any{"dispute_id": dispute.ID.String(), "reason": input.Reason},
	})
	_ = s.publisher.Publish(ctx, events.StreamSwap, events.DisputeOpened{
		SwapID:    swap.ID,
		DisputeID: dispute.ID,
		Reporter:  userID,
		Reason:    input.Reason,
	})
	_ = s.notifyClient.Send(ctx, reported, "dispute_opened", "A dispute was opened on your swap. An arbiter will review the evidence.")

	return dispute, nil
}

// canViewDispute limits dispute reads to the disputed swap's participants
// and arbiters.
func canViewDispute(swap *models.Swap, userID uuid.UUID, arbiter bool) bool {
	return arbiter || swap.IsParticipant(userID)
}

func (s *DisputeService) Get(ctx context.Context, disputeID, userID uuid.UUID, arbiter bool) (*models.Dispute, error) {
	d, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "dispute not found")
	}
	swap, err := s.swapRepo.GetByID(ctx, d.SwapID)
	if err != nil {
		return nil, err
	}
	if !canViewDispute(swap, userID, arbiter) {
		return nil, apperr.Unauthorized("not a participant of the disputed swap")
	}
	return d, nil
}

func (s *DisputeService) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	return s.disputeRepo.ListOpen(ctx, limit, offset)
}

// Investigate marks a dispute as picked up by an arbiter.
func (s *DisputeService) Investigate(ctx context.Context, disputeID, arbiterID uuid.UUID) (*models.Dispute, error) {
	d, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "dispute not found")
	}
	ok, err := s.disputeRepo.MarkInvestigating(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("dispute is not open")
	}
	d.Status = models.DisputeStatusInvestigating

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &arbiterID,
		ActorType:   models.ActorAdmin,
		Action:      "dispute_investigating",
		EntityType:  "swap",
		EntityID:    &d.SwapID,
		Meta:        map[string]any{"dispute_id": d.ID.String()},
	})
	return d, nil
}

// Resolve upholds the dispute against one participant: the swap terminates
// failed, the at-fault side loses trust and collateral, and half the
// forfeited points refund the other side.
func (s *DisputeService) Resolve(ctx context.Context, disputeID, arbiterID, atFaultUserID uuid.UUID, resolution string) (*models.Dispute, error) {
	d, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "dispute not found")
	}
	if !d.IsOpen() {
		return nil, apperr.InvalidState("dispute was already decided")
	}

	swap, err := s.swapRepo.GetByID(ctx, d.SwapID)
	if err != nil {
		return nil, err
	}
	if !swap.IsParticipant(atFaultUserID) {
		return nil, apperr.Validation("at-fault user is not a participant of the swap")
	}
	winner, _ := swap.OtherParticipant(atFaultUserID)

	ok, err := s.disputeRepo.Decide(ctx, d.ID, models.DisputeStatusResolved, &atFaultUserID, resolution)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("dispute was decided concurrently")
	}
	d.Status = models.DisputeStatusResolved
	d.AtFaultUserID = &atFaultUserID
	d.Resolution = &resolution

	if swap.Status == models.SwapStatusDisputed {
		if err := s.swapSvc.transition(ctx, swap, models.SwapStatusFailed, &arbiterID, models.ActorAdmin); err != nil && !apperr.Is(err, apperr.KindConflict) {
			return nil, err
		}
	}

	full, err := s.swapRepo.GetByIDWithBills(ctx, d.SwapID)
	if err != nil {
		return nil, err
	}
	if _, err := s.trustSvc.ApplyOutcome(ctx, swap.ID, atFaultUserID, models.OutcomeDisputeLoss, s.swapSvc.owedAmount(full, atFaultUserID), swap.SwapType); err != nil {
		s.log.Error("failed to apply dispute loss", zap.String("user_id", atFaultUserID.String()), zap.Error(err))
	}
	if err := s.collateralSvc.ForfeitWithRefund(ctx, swap.ID, atFaultUserID, &winner); err != nil {
		s.log.Error("failed to forfeit dispute collateral", zap.String("user_id", atFaultUserID.String()), zap.Error(err))
	}
	if terms, err := s.swapSvc.termsSvc.AcceptedForSwap(ctx, swap.ID); err == nil && terms != nil && terms.FallbackPenalty == models.PenaltyEligibilityLock {
		if err := s.trustSvc.ApplyEligibilityLock(ctx, atFaultUserID, time.Now().Add(models.EligibilityLockWindow)); err != nil {
			s.log.Error("failed to apply eligibility lock", zap.String("user_id", atFaultUserID.String()), zap.Error(err))
		}
	}
	_ = s.collateralSvc.ReleaseForSwap(ctx, swap.ID, winner, false)

	// Uncommitted bills return to the pool.
	s.releaseDisputedBills(ctx, swap)

	s.recordDecision(ctx, d, &arbiterID, false)
	_ = s.notifyClient.Send(ctx, atFaultUserID, "dispute_resolved", "The dispute on your swap was resolved against you.")
	_ = s.notifyClient.Send(ctx, winner, "dispute_resolved", "The dispute on your swap was resolved in your favor. Part of the forfeited collateral was credited to you.")

	return d, nil
}

// Dismiss rejects the dispute: the swap resumes proof collection and nobody
// is penalized.
func (s *DisputeService) Dismiss(ctx context.Context, disputeID, arbiterID uuid.UUID, resolution string) (*models.Dispute, error) {
	d, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "dispute not found")
	}
	if !d.IsOpen() {
		return nil, apperr.InvalidState("dispute was already decided")
	}

	swap, err := s.swapRepo.GetByID(ctx, d.SwapID)
	if err != nil {
		return nil, err
	}

	ok, err := s.disputeRepo.Decide(ctx, d.ID, models.DisputeStatusDismissed, nil, resolution)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("dispute was decided concurrently")
	}
	d.Status = models.DisputeStatusDismissed
	d.Resolution = &resolution

	if swap.Status == models.SwapStatusDisputed {
		if err := s.swapSvc.transition(ctx, swap, models.SwapStatusAwaitingProof, &arbiterID, models.ActorAdmin); err != nil && !apperr.Is(err, apperr.KindConflict) {
			return nil, err
		}
		// Filing froze the clock; restart the full submission window so
		// participants mid-collection are not failed by the freeze.
		terms, err := s.swapSvc.termsSvc.AcceptedForSwap(ctx, swap.ID)
		if err != nil {
			terms = nil
		}
		_ = s.swapRepo.SetProofDue(ctx, swap.ID, time.Now().Add(s.swapSvc.proofWindow(terms)))
	}

	s.recordDecision(ctx, d, &arbiterID, true)
	_ = s.notifyClient.Send(ctx, d.ReporterUserID, "dispute_dismissed", "Your dispute was dismissed. The swap resumes proof collection.")
	_ = s.notifyClient.Send(ctx, d.ReportedUserID, "dispute_dismissed", "The dispute on your swap was dismissed. The swap resumes proof collection.")

	return d, nil
}

func (s *DisputeService) releaseDisputedBills(ctx context.Context, swap *models.Swap) {
	_, _ = s.swapSvc.billRepo.UpdateStatusIf(ctx, swap.InitiatorBillID, models.BillStatusLockedInSwap, models.BillStatusActive)
	if swap.CounterpartyBillID != nil {
		_, _ = s.swapSvc.billRepo.UpdateStatusIf(ctx, *swap.CounterpartyBillID, models.BillStatusLockedInSwap, models.BillStatusActive)
	}
}

func (s *DisputeService) recordDecision(ctx context.Context, d *models.Dispute, arbiterID *uuid.UUID, dismissed bool) {
	action := "dispute_resolved"
	if dismissed {
		action = "dispute_dismissed"
	}
	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: arbiterID,
		ActorType:   models.ActorAdmin,
		Action:      action,
		EntityType:  "swap",
		EntityID:    &d.SwapID,
		Meta:        map[string]any{"dispute_id": d.ID.String()},
	})
	_ = s.publisher.Publish(ctx, events.StreamSwap, events.DisputeResolved{
		SwapID:    d.SwapID,
		DisputeID: d.ID,
		AtFault:   d.AtFaultUserID,
		Dismissed: dismissed,
	})
}
