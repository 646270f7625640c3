package services

import (
	"context"
	"fmt"
	"time"

	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/config"
	"github.com/billswap/backend/internal/events"
	"github.com/billswap/backend/internal/models"
	"github.com/billswap/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SwapService struct {
	swapRepo       *repositories.SwapRepo
	billRepo       *repositories.BillRepo
	proofRepo      *repositories.ProofRepo
	extensionRepo  *repositories.ExtensionRepo
	auditRepo      *repositories.AuditRepo
	trustSvc       *TrustService
	collateralSvc  *CollateralService
	termsSvc       *TermsService
	notifyClient   *NotifyClient
	chatClient     *ChatClient
	paymentClient  *PaymentClient
	publisher      events.Publisher
	cfg            *config.Config
	log            *zap.Logger
}

func NewSwapService(
	swapRepo *repositories.SwapRepo,
	billRepo *repositories.BillRepo,
	proofRepo *repositories.ProofRepo,
	extensionRepo *repositories.ExtensionRepo,
	auditRepo *repositories.AuditRepo,
	trustSvc *TrustService,
	collateralSvc *CollateralService,
	termsSvc *TermsService,
	notifyClient *NotifyClient,
	chatClient *ChatClient,
	paymentClient *PaymentClient,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *SwapService {
	return &SwapService{
		swapRepo:      swapRepo,
		billRepo:      billRepo,
		proofRepo:     proofRepo,
		extensionRepo: extensionRepo,
		auditRepo:     auditRepo,
		trustSvc:      trustSvc,
		collateralSvc: collateralSvc,
		termsSvc:      termsSvc,
		notifyClient:  notifyClient,
		chatClient:    chatClient,
		paymentClient: paymentClient,
		publisher:     publisher,
		cfg:           cfg,
		log:           log,
	}
}

// transition validates and performs a guarded status change with audit and
// event publication. A lost race surfaces as Conflict, never as a silent
// double-apply.
func (s *SwapService) transition(ctx context.Context, swap *models.Swap, newStatus string, actorID *uuid.UUID, actorType string) error {
	if !models.IsValidTransition(swap.Status, newStatus) {
		return apperr.InvalidState("cannot go from %s to %s", swap.Status, newStatus)
	}

	oldStatus := swap.Status
	ok, err := s.swapRepo.TransitionStatus(ctx, swap.ID, oldStatus, newStatus)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("swap changed concurrently, expected status %s", oldStatus)
	}
	swap.Status = newStatus

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: actorID,
		ActorType:   actorType,
		Action:      fmt.Sprintf("swap_status_%s_to_%s", oldStatus, newStatus),
		EntityType:  "swap",
		EntityID:    &swap.ID,
		Meta:        map[string]any{"old_status": oldStatus, "new_status": newStatus},
	})
	_ = s.publisher.Publish(ctx, events.StreamSwap, events.SwapStatusChanged{
		SwapID:    swap.ID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorType: actorType,
	})
	return nil
}

// checkEligibility enforces tier gates shared by offer creation and
// acceptance.
func (s *SwapService) checkEligibility(ctx context.Context, userID uuid.UUID, billAmountMinor int64) (*models.TrustProfile, error) {
	profile, err := s.trustSvc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.IsEligibilityLocked(time.Now()) {
		return nil, apperr.Unauthorized("account is locked out of new swaps until %s", profile.LockedUntil.Format(time.RFC3339))
	}
	if cap := models.MaxBillAmountForTier(profile.Tier); billAmountMinor > cap {
		return nil, apperr.Validation("bill amount exceeds tier %d cap of %d", profile.Tier, cap)
	}
	active, err := s.swapRepo.CountActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active >= models.MaxActiveSwapsForTier(profile.Tier) {
		return nil, apperr.InvalidState("active swap limit for tier %d reached", profile.Tier)
	}
	return profile, nil
}

// CreateOffer opens a swap offer around one of the caller's active bills.
// The bill is committed to the offer immediately; the guarded flip makes a
// double-offer of the same bill impossible.
func (s *SwapService) CreateOffer(ctx context.Context, userID, billID uuid.UUID) (*models.Swap, error) {
	bill, err := s.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "bill not found")
	}
	if bill.UserID != userID {
		return nil, apperr.Unauthorized("only the bill owner can offer it")
	}
	if _, err := s.checkEligibility(ctx, userID, bill.AmountMinor); err != nil {
		return nil, err
	}

	ok, err := s.billRepo.UpdateStatusIf(ctx, bill.ID, models.BillStatusActive, models.BillStatusLockedInSwap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("bill is not available for a swap")
	}

	swap := &models.Swap{
		InitiatorUserID:      userID,
		InitiatorBillID:      bill.ID,
		SwapType:             models.SwapTypeTwoSided,
		Status:               models.SwapStatusOffered,
		InitiatorFeeMinor:    s.cfg.DefaultSwapFeeMinor,
		CounterpartyFeeMinor: s.cfg.DefaultSwapFeeMinor,
		AcceptDeadline:       time.Now().Add(s.cfg.AcceptDeadline),
	}
	if err := s.swapRepo.Create(ctx, swap); err != nil {
		// Roll the bill back so it is not stranded.
		_, _ = s.billRepo.UpdateStatusIf(ctx, bill.ID, models.BillStatusLockedInSwap, models.BillStatusActive)
		return nil, err
	}

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "swap_offer_created",
		EntityType:  "swap",
		EntityID:    &swap.ID,
		Meta:        map[string]any{"bill_id": bill.ID.String(), "amount_minor": bill.AmountMinor},
	})
	return swap, nil
}

// AcceptOffer joins an open offer. With a bill of their own the acceptor
// forms a two-sided swap; with none, a one-sided assist, gated on earned
// standing.
func (s *SwapService) AcceptOffer(ctx context.Context, swapID, userID uuid.UUID, counterpartyBillID *uuid.UUID) (*models.Swap, error) {
	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if swap.InitiatorUserID == userID {
		return nil, apperr.InvalidState("cannot accept your own offer")
	}
	if swap.Status != models.SwapStatusOffered {
		return nil, apperr.InvalidState("offer is no longer open, swap is %s", swap.Status)
	}
	if time.Now().After(swap.AcceptDeadline) {
		return nil, apperr.Expired("offer expired at %s", swap.AcceptDeadline.Format(time.RFC3339))
	}

	initiatorBill, err := s.billRepo.GetByID(ctx, swap.InitiatorBillID)
	if err != nil {
		return nil, err
	}

	swapType := models.SwapTypeOneSidedAssist
	var counterpartyBill *models.Bill
	if counterpartyBillID != nil {
		swapType = models.SwapTypeTwoSided
		counterpartyBill, err = s.billRepo.GetByID(ctx, *counterpartyBillID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "bill not found")
		}
		if counterpartyBill.UserID != userID {
			return nil, apperr.Unauthorized("only the bill owner can commit it")
		}
	}

	// Eligibility is judged against the larger obligation the acceptor takes
	// on: their own bill, or the initiator's bill they promise to pay.
	exposure := initiatorBill.AmountMinor
	if counterpartyBill != nil && counterpartyBill.AmountMinor > exposure {
		exposure = counterpartyBill.AmountMinor
	}
	profile, err := s.checkEligibility(ctx, userID, exposure)
	if err != nil {
		return nil, err
	}
	if swapType == models.SwapTypeOneSidedAssist && profile.Tier < models.MinTierOneSidedAssist {
		return nil, apperr.Unauthorized("one-sided assists require tier %d", models.MinTierOneSidedAssist)
	}

	if counterpartyBill != nil {
		ok, err := s.billRepo.UpdateStatusIf(ctx, counterpartyBill.ID, models.BillStatusActive, models.BillStatusLockedInSwap)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Conflict("bill is not available for a swap")
		}
	}

	unlockCounterpartyBill := func() {
		if counterpartyBill != nil {
			_, _ = s.billRepo.UpdateStatusIf(ctx, counterpartyBill.ID, models.BillStatusLockedInSwap, models.BillStatusActive)
		}
	}

	ok, err := s.swapRepo.AttachCounterparty(ctx, swap.ID, userID, counterpartyBillID, swapType)
	if err != nil {
		unlockCounterpartyBill()
		return nil, err
	}
	if !ok {
		unlockCounterpartyBill()
		return nil, apperr.Conflict("offer was taken or withdrawn")
	}
	swap.CounterpartyUserID = &userID
	swap.CounterpartyBillID = counterpartyBillID
	swap.SwapType = swapType

	if err := s.transition(ctx, swap, models.SwapStatusAcceptedPendingFee, &userID, models.ActorUser); err != nil {
		return nil, err
	}

	if _, err := s.chatClient.OpenThread(ctx, swap.ID, swap.InitiatorUserID, userID); err != nil {
		s.log.Warn("failed to open swap chat thread", zap.String("swap_id", swap.ID.String()), zap.Error(err))
	}
	_ = s.notifyClient.Send(ctx, swap.InitiatorUserID, "swap_accepted", "Your swap offer was accepted. Agree terms and confirm the fee.")

	return swap, nil
}

// ConfirmFee verifies one side's platform-fee charge. When every required
// fee is in, collateral locks and the swap moves to proof collection.
func (s *SwapService) ConfirmFee(ctx context.Context, swapID, userID uuid.UUID, chargeReference string) (*models.Swap, error) {
	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	if swap.Status != models.SwapStatusAcceptedPendingFee {
		return nil, apperr.InvalidState("fees are not pending, swap is %s", swap.Status)
	}

	initiatorSide := swap.InitiatorUserID == userID
	expected := swap.CounterpartyFeeMinor
	if initiatorSide {
		expected = swap.InitiatorFeeMinor
	}
	if swap.SwapType == models.SwapTypeOneSidedAssist && !initiatorSide {
		return nil, apperr.InvalidState("the assisting side pays no fee")
	}

	settled, err := s.paymentClient.VerifyCharge(ctx, chargeReference, expected)
	if err != nil {
		return nil, err
	}
	if !settled {
		return nil, apperr.Validation("charge %s has not settled for the expected amount", chargeReference)
	}

	if _, err := s.swapRepo.MarkFeePaid(ctx, swap.ID, initiatorSide); err != nil {
		return nil, err
	}

	swap, err = s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap.FeesSettled() && swap.Status == models.SwapStatusAcceptedPendingFee {
		if err := s.activate(ctx, swap); err != nil {
			return nil, err
		}
	}
	return swap, nil
}

// activate locks collateral on both sides and starts the proof window. Runs
// after the last fee confirmation; the CAS on accepted_pending_fee -> locked
// guarantees a single activation even when both confirmations land at once.
func (s *SwapService) activate(ctx context.Context, swap *models.Swap) error {
	full, err := s.swapRepo.GetByIDWithBills(ctx, swap.ID)
	if err != nil {
		return err
	}

	initiatorAmount := int64(0)
	if full.InitiatorBillAmount != nil {
		initiatorAmount = *full.InitiatorBillAmount
	}
	counterpartyAmount := initiatorAmount
	if full.CounterpartyBillAmount != nil {
		counterpartyAmount = *full.CounterpartyBillAmount
	}

	// The agreed fallback penalty picks the collateral mode: a credit-forfeit
	// agreement stakes credits alongside the points.
	terms, err := s.termsSvc.AcceptedForSwap(ctx, swap.ID)
	if err != nil {
		return err
	}
	stake := func(amount int64) int64 {
		if terms != nil && terms.FallbackPenalty == models.PenaltyCreditForfeit {
			return models.LockAmountForBill(amount)
		}
		return 0
	}

	if err := s.collateralSvc.LockForSwap(ctx, swap.ID, swap.InitiatorUserID, initiatorAmount, stake(initiatorAmount)); err != nil {
		return err
	}
	if swap.CounterpartyUserID != nil {
		if err := s.collateralSvc.LockForSwap(ctx, swap.ID, *swap.CounterpartyUserID, counterpartyAmount, stake(counterpartyAmount)); err != nil {
			return err
		}
	}

	if err := s.transition(ctx, swap, models.SwapStatusLocked, nil, models.ActorSystem); err != nil {
		return err
	}

	if err := s.swapRepo.SetProofDue(ctx, swap.ID, time.Now().Add(s.proofWindow(terms))); err != nil {
		return err
	}

	if err := s.transition(ctx, swap, models.SwapStatusAwaitingProof, nil, models.ActorSystem); err != nil {
		return err
	}

	_ = s.chatClient.PostSystemMessage(ctx, swap.ID, "Swap is live. Pay the counterpart bill and submit proof before the deadline.")
	_ = s.notifyClient.Send(ctx, swap.InitiatorUserID, "swap_locked", "Your swap is locked in. Submit payment proof before the deadline.")
	if swap.CounterpartyUserID != nil {
		_ = s.notifyClient.Send(ctx, *swap.CounterpartyUserID, "swap_locked", "Your swap is locked in. Submit payment proof before the deadline.")
	}
	return nil
}

// proofWindow is the submission window a swap runs on: the negotiated value
// when terms were accepted, the configured default otherwise.
func (s *SwapService) proofWindow(terms *models.Terms) time.Duration {
	if terms != nil && terms.ProofWindowHours > 0 {
		return time.Duration(terms.ProofWindowHours) * time.Hour
	}
	return s.cfg.ProofWindow
}

// requiredSubmitters returns who must produce an accepted proof.
func requiredSubmitters(swap *models.Swap) []uuid.UUID {
	if swap.SwapType == models.SwapTypeOneSidedAssist {
		if swap.CounterpartyUserID != nil {
			return []uuid.UUID{*swap.CounterpartyUserID}
		}
		return nil
	}
	out := []uuid.UUID{swap.InitiatorUserID}
	if swap.CounterpartyUserID != nil {
		out = append(out, *swap.CounterpartyUserID)
	}
	return out
}

// SubmitProof records a payment proof during the proof window.
func (s *SwapService) SubmitProof(ctx context.Context, swapID, userID uuid.UUID, proofType, url string) (*models.Proof, error) {
	if !models.IsValidProofType(proofType) {
		return nil, apperr.Validation("unknown proof type %q", proofType)
	}
	if url == "" {
		return nil, apperr.Validation("proof url is required")
	}

	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	if swap.Status != models.SwapStatusAwaitingProof {
		return nil, apperr.InvalidState("proofs are not being collected, swap is %s", swap.Status)
	}

	required := false
	for _, id := range requiredSubmitters(swap) {
		if id == userID {
			required = true
		}
	}
	if !required {
		return nil, apperr.InvalidState("this side does not submit proof on an assist")
	}

	count, err := s.proofRepo.CountBySubmitter(ctx, swap.ID, userID)
	if err != nil {
		return nil, err
	}
	if count > models.MaxProofResubmits {
		return nil, apperr.InvalidState("proof resubmission limit reached")
	}

	proof := &models.Proof{
		SwapID:          swap.ID,
		SubmitterUserID: userID,
		ProofType:       proofType,
		URL:             url,
		Status:          models.ProofStatusPending,
		ReviewDeadline:  time.Now().Add(s.cfg.ProofReviewWindow),
		ResubmitCount:   count,
	}
	if err := s.proofRepo.Create(ctx, proof); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "proof_submitted",
		EntityType:  "swap",
		EntityID:    &swap.ID,
		Meta:        map[string]any{"proof_id": proof.ID.String(), "proof_type": proofType},
	})
	_ = s.publisher.Publish(ctx, events.StreamSwap, events.ProofSubmitted{
		SwapID:    swap.ID,
		ProofID:   proof.ID,
		Submitter: userID,
	})
	if other, ok := swap.OtherParticipant(userID); ok {
		_ = s.notifyClient.Send(ctx, other, "proof_submitted", "Your swap partner submitted payment proof. Review it before the deadline.")
	}
	return proof, nil
}

// ReviewProof lets the non-submitter accept or reject a pending proof.
// Acceptance re-evaluates completion.
func (s *SwapService) ReviewProof(ctx context.Context, proofID, userID uuid.UUID, accept bool) (*models.Proof, error) {
	proof, err := s.proofRepo.GetByID(ctx, proofID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "proof not found")
	}
	if proof.SubmitterUserID == userID {
		return nil, apperr.InvalidState("cannot review your own proof")
	}

	swap, err := s.swapRepo.GetByID(ctx, proof.SwapID)
	if err != nil {
		return nil, err
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	if !models.ProofsDecidable(swap.Status) {
		return nil, apperr.InvalidState("proofs are not being reviewed, swap is %s", swap.Status)
	}

	newStatus := models.ProofStatusRejected
	if accept {
		newStatus = models.ProofStatusAccepted
	}
	ok, err := s.proofRepo.SetStatusIf(ctx, proof.ID, models.ProofStatusPending, newStatus)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("proof was already decided")
	}
	proof.Status = newStatus

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "proof_" + newStatus,
		EntityType:  "swap",
		EntityID:    &swap.ID,
		Meta:        map[string]any{"proof_id": proof.ID.String()},
	})
	_ = s.publisher.Publish(ctx, events.StreamSwap, events.ProofReviewed{
		SwapID:  swap.ID,
		ProofID: proof.ID,
		Status:  newStatus,
	})
	_ = s.notifyClient.Send(ctx, proof.SubmitterUserID, "proof_reviewed", "Your payment proof was "+newStatus+".")

	if accept {
		if err := s.EvaluateCompletion(ctx, swap.ID); err != nil {
			return nil, err
		}
	}
	return proof, nil
}

// EvaluateCompletion completes the swap once enough accepted proofs from
// distinct submitters exist. Idempotent: the completion CAS makes repeated
// evaluations harmless.
func (s *SwapService) EvaluateCompletion(ctx context.Context, swapID uuid.UUID) error {
	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return err
	}
	if swap.Status != models.SwapStatusAwaitingProof {
		return nil
	}

	proofs, err := s.proofRepo.ListBySwap(ctx, swap.ID)
	if err != nil {
		return err
	}
	if models.CountAcceptedDistinct(proofs) < swap.RequiredProofCount() {
		return nil
	}

	if err := s.transition(ctx, swap, models.SwapStatusCompleted, nil, models.ActorSystem); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil
		}
		return err
	}
	return s.settleCompleted(ctx, swap)
}

// settleCompleted releases collateral with the success bonus, confirms the
// bills, and credits trust outcomes to both sides.
func (s *SwapService) settleCompleted(ctx context.Context, swap *models.Swap) error {
	full, err := s.swapRepo.GetByIDWithBills(ctx, swap.ID)
	if err != nil {
		return err
	}

	initiatorAmount := int64(0)
	if full.InitiatorBillAmount != nil {
		initiatorAmount = *full.InitiatorBillAmount
	}
	counterpartyAmount := initiatorAmount
	if full.CounterpartyBillAmount != nil {
		counterpartyAmount = *full.CounterpartyBillAmount
	}

	_, _ = s.billRepo.UpdateStatusIf(ctx, swap.InitiatorBillID, models.BillStatusLockedInSwap, models.BillStatusPaidConfirmed)
	if swap.CounterpartyBillID != nil {
		_, _ = s.billRepo.UpdateStatusIf(ctx, *swap.CounterpartyBillID, models.BillStatusLockedInSwap, models.BillStatusPaidConfirmed)
	}

	if err := s.collateralSvc.ReleaseForSwap(ctx, swap.ID, swap.InitiatorUserID, true); err != nil {
		s.log.Error("failed to release initiator collateral", zap.String("swap_id", swap.ID.String()), zap.Error(err))
	}
	if swap.CounterpartyUserID != nil {
		if err := s.collateralSvc.ReleaseForSwap(ctx, swap.ID, *swap.CounterpartyUserID, true); err != nil {
			s.log.Error("failed to release counterparty collateral", zap.String("swap_id", swap.ID.String()), zap.Error(err))
		}
	}

	// Each side is credited for the bill they actually paid.
	if _, err := s.trustSvc.ApplyOutcome(ctx, swap.ID, swap.InitiatorUserID, models.OutcomeCompleted, counterpartyAmount, swap.SwapType); err != nil {
		s.log.Error("failed to apply initiator trust outcome", zap.String("swap_id", swap.ID.String()), zap.Error(err))
	}
	if swap.CounterpartyUserID != nil {
		if _, err := s.trustSvc.ApplyOutcome(ctx, swap.ID, *swap.CounterpartyUserID, models.OutcomeCompleted, initiatorAmount, swap.SwapType); err != nil {
			s.log.Error("failed to apply counterparty trust outcome", zap.String("swap_id", swap.ID.String()), zap.Error(err))
		}
	}

	_ = s.notifyClient.Send(ctx, swap.InitiatorUserID, "swap_completed", "Swap completed. Collateral released and trust updated.")
	if swap.CounterpartyUserID != nil {
		_ = s.notifyClient.Send(ctx, *swap.CounterpartyUserID, "swap_completed", "Swap completed. Collateral released and trust updated.")
	}
	return nil
}

// Cancel withdraws a swap before proof collection starts. Committed bills
// return to the pool and any held collateral unlocks without bonus.
func (s *SwapService) Cancel(ctx context.Context, swapID, userID uuid.UUID) (*models.Swap, error) {
	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	if !models.IsCancellable(swap.Status) {
		return nil, apperr.InvalidState("swap in status %s cannot be cancelled", swap.Status)
	}

	if err := s.transition(ctx, swap, models.SwapStatusCancelled, &userID, models.ActorUser); err != nil {
		return nil, err
	}
	s.releaseCancelled(ctx, swap)

	if other, ok := swap.OtherParticipant(userID); ok {
		_ = s.notifyClient.Send(ctx, other, "swap_cancelled", "Your swap was cancelled by the other side.")
	}
	return swap, nil
}

func (s *SwapService) releaseCancelled(ctx context.Context, swap *models.Swap) {
	_, _ = s.billRepo.UpdateStatusIf(ctx, swap.InitiatorBillID, models.BillStatusLockedInSwap, models.BillStatusActive)
	if swap.CounterpartyBillID != nil {
		_, _ = s.billRepo.UpdateStatusIf(ctx, *swap.CounterpartyBillID, models.BillStatusLockedInSwap, models.BillStatusActive)
	}
	_ = s.collateralSvc.ReleaseForSwap(ctx, swap.ID, swap.InitiatorUserID, false)
	if swap.CounterpartyUserID != nil {
		_ = s.collateralSvc.ReleaseForSwap(ctx, swap.ID, *swap.CounterpartyUserID, false)
	}
}

func (s *SwapService) GetSwap(ctx context.Context, swapID, userID uuid.UUID) (*models.SwapWithBills, error) {
	swap, err := s.swapRepo.GetByIDWithBills(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	return swap, nil
}

func (s *SwapService) ListSwaps(ctx context.Context, f repositories.SwapFilter) ([]models.Swap, error) {
	return s.swapRepo.List(ctx, f)
}

func (s *SwapService) ListProofs(ctx context.Context, swapID, userID uuid.UUID) ([]models.Proof, error) {
	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	return s.proofRepo.ListBySwap(ctx, swapID)
}

// GetTimeline returns the audit trail for a swap.
func (s *SwapService) GetTimeline(ctx context.Context, swapID, userID uuid.UUID) ([]models.AuditLog, error) {
	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	return s.auditRepo.ListByEntity(ctx, "swap", swapID, 200)
}

// RequestExtension asks the other side for more proof time.
func (s *SwapService) RequestExtension(ctx context.Context, swapID, userID uuid.UUID, extraHours int) (*models.DeadlineExtension, error) {
	if extraHours <= 0 || extraHours > models.MaxExtensionHours {
		return nil, apperr.Validation("extension must be between 1 and %d hours", models.MaxExtensionHours)
	}

	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "swap not found")
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}
	if swap.Status != models.SwapStatusAwaitingProof {
		return nil, apperr.InvalidState("extensions only apply during proof collection, swap is %s", swap.Status)
	}

	pending, err := s.extensionRepo.GetPendingBySwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, apperr.Conflict("an extension request is already pending")
	}

	ext := &models.DeadlineExtension{
		SwapID:          swap.ID,
		RequesterUserID: userID,
		ExtraHours:      extraHours,
		Status:          models.ExtensionStatusPending,
		RespondBy:       time.Now().Add(s.cfg.ExtensionRespondWindow),
	}
	if err := s.extensionRepo.Create(ctx, ext); err != nil {
		return nil, err
	}

	if other, ok := swap.OtherParticipant(userID); ok {
		_ = s.notifyClient.Send(ctx, other, "extension_requested",
			fmt.Sprintf("Your swap partner asked for %d more hours to submit proof.", extraHours))
	}
	return ext, nil
}

// RespondExtension approves or declines a pending extension request;
// approval pushes the proof deadline out.
func (s *SwapService) RespondExtension(ctx context.Context, extensionID, userID uuid.UUID, approve bool) (*models.DeadlineExtension, error) {
	ext, err := s.extensionRepo.GetByID(ctx, extensionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "extension request not found")
	}
	if ext.RequesterUserID == userID {
		return nil, apperr.InvalidState("cannot respond to your own request")
	}

	swap, err := s.swapRepo.GetByID(ctx, ext.SwapID)
	if err != nil {
		return nil, err
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Unauthorized("not a participant of this swap")
	}

	newStatus := models.ExtensionStatusDeclined
	if approve {
		newStatus = models.ExtensionStatusApproved
	}
	ok, err := s.extensionRepo.Respond(ctx, ext.ID, newStatus)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("extension request was already decided")
	}
	ext.Status = newStatus

	if approve {
		if _, err := s.swapRepo.ExtendProofDue(ctx, swap.ID, ext.ExtraHours); err != nil {
			return nil, err
		}
		_ = s.auditRepo.Create(ctx, &models.AuditLog{
			ActorUserID: &userID,
			ActorType:   models.ActorUser,
			Action:      "proof_deadline_extended",
			EntityType:  "swap",
			EntityID:    &swap.ID,
			Meta:        map[string]any{"extra_hours": ext.ExtraHours},
		})
	}
	_ = s.notifyClient.Send(ctx, ext.RequesterUserID, "extension_decided", "Your extension request was "+newStatus+".")
	return ext, nil
}
