package services

import (
	"context"
	"time"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SweepExpiredOffers cancels open offers whose accept deadline passed and
// returns the bills to the pool.
func (s *SwapService) SweepExpiredOffers(ctx context.Context) (int, error) {
	expired, err := s.swapRepo.GetExpiredOffers(ctx, time.Now(), 100)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range expired {
		swap := &expired[i]
		if err := s.transition(ctx, swap, models.SwapStatusCancelled, nil, models.ActorSystem); err != nil {
			// Lost the race to an acceptance or a manual cancel.
			continue
		}
		_, _ = s.billRepo.UpdateStatusIf(ctx, swap.InitiatorBillID, models.BillStatusLockedInSwap, models.BillStatusActive)
		_ = s.notifyClient.Send(ctx, swap.InitiatorUserID, "offer_expired", "Your swap offer expired without an acceptance.")
		swept++
	}
	return swept, nil
}

// SweepProofReviews auto-accepts pending proofs past their review deadline
// and re-evaluates completion for the affected swaps. Silence from the
// reviewer counts as acceptance.
func (s *SwapService) SweepProofReviews(ctx context.Context) (int, error) {
	swapIDs, err := s.proofRepo.AutoAcceptOverdue(ctx, time.Now(), 100)
	if err != nil {
		return 0, err
	}

	seen := map[uuid.UUID]bool{}
	for _, id := range swapIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := s.EvaluateCompletion(ctx, id); err != nil {
			s.log.Error("completion evaluation after auto-accept failed",
				zap.String("swap_id", id.String()), zap.Error(err))
		}
	}
	return len(swapIDs), nil
}

// SweepProofDeadlines fails swaps whose proof window closed without the
// required proofs. Swaps with proofs still in review are skipped until the
// review sweep settles them.
func (s *SwapService) SweepProofDeadlines(ctx context.Context) (int, error) {
	overdue, err := s.swapRepo.GetProofOverdue(ctx, time.Now(), 100)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range overdue {
		swap := &overdue[i]
		proofs, err := s.proofRepo.ListBySwap(ctx, swap.ID)
		if err != nil {
			s.log.Error("failed to load proofs for overdue swap",
				zap.String("swap_id", swap.ID.String()), zap.Error(err))
			continue
		}

		if models.CountAcceptedDistinct(proofs) >= swap.RequiredProofCount() {
			if err := s.EvaluateCompletion(ctx, swap.ID); err != nil {
				s.log.Error("completion evaluation at deadline failed",
					zap.String("swap_id", swap.ID.String()), zap.Error(err))
			}
			continue
		}

		pendingLeft := false
		for _, p := range proofs {
			if p.Status == models.ProofStatusPending {
				pendingLeft = true
				break
			}
		}
		if pendingLeft {
			continue
		}

		if err := s.failAtDeadline(ctx, swap, proofs); err != nil {
			s.log.Error("failed to fail overdue swap",
				zap.String("swap_id", swap.ID.String()), zap.Error(err))
			continue
		}
		swept++
	}
	return swept, nil
}

// failAtDeadline moves the swap to failed and penalizes the sides with no
// accepted proof: a no-show if they never submitted, at-fault if everything
// they submitted was rejected. The other side's collateral unlocks.
func (s *SwapService) failAtDeadline(ctx context.Context, swap *models.Swap, proofs []models.Proof) error {
	if err := s.transition(ctx, swap, models.SwapStatusFailed, nil, models.ActorSystem); err != nil {
		return err
	}

	full, err := s.swapRepo.GetByIDWithBills(ctx, swap.ID)
	if err != nil {
		return err
	}

	terms, err := s.termsSvc.AcceptedForSwap(ctx, swap.ID)
	if err != nil {
		return err
	}

	accepted := map[uuid.UUID]bool{}
	submitted := map[uuid.UUID]bool{}
	for _, p := range proofs {
		submitted[p.SubmitterUserID] = true
		if models.IsProofAccepted(p.Status) {
			accepted[p.SubmitterUserID] = true
		}
	}

	atFault := map[uuid.UUID]bool{}
	for _, id := range requiredSubmitters(swap) {
		if accepted[id] {
			continue
		}
		atFault[id] = true

		outcome := models.OutcomeNoShow
		if submitted[id] {
			outcome = models.OutcomeFailedAtFault
		}
		amount := s.owedAmount(full, id)
		if _, err := s.trustSvc.ApplyOutcome(ctx, swap.ID, id, outcome, amount, swap.SwapType); err != nil {
			s.log.Error("failed to apply fault trust outcome",
				zap.String("user_id", id.String()), zap.Error(err))
		}
		if err := s.collateralSvc.ForfeitWithRefund(ctx, swap.ID, id, nil); err != nil {
			s.log.Error("failed to forfeit collateral",
				zap.String("user_id", id.String()), zap.Error(err))
		}
		if terms != nil && terms.FallbackPenalty == models.PenaltyEligibilityLock {
			if err := s.trustSvc.ApplyEligibilityLock(ctx, id, time.Now().Add(models.EligibilityLockWindow)); err != nil {
				s.log.Error("failed to apply eligibility lock",
					zap.String("user_id", id.String()), zap.Error(err))
			}
		}
	}

	for _, id := range participants(swap) {
		if !atFault[id] {
			_ = s.collateralSvc.ReleaseForSwap(ctx, swap.ID, id, false)
		}
		_ = s.notifyClient.Send(ctx, id, "swap_failed", "The swap failed at the proof deadline. You can file a dispute within the filing window.")
	}

	// Bills go back to the pool; they were not confirmed paid.
	_, _ = s.billRepo.UpdateStatusIf(ctx, swap.InitiatorBillID, models.BillStatusLockedInSwap, models.BillStatusActive)
	if swap.CounterpartyBillID != nil {
		_, _ = s.billRepo.UpdateStatusIf(ctx, *swap.CounterpartyBillID, models.BillStatusLockedInSwap, models.BillStatusActive)
	}
	return nil
}

// owedAmount is the bill a participant was responsible for paying.
func (s *SwapService) owedAmount(full *models.SwapWithBills, userID uuid.UUID) int64 {
	// The counterparty pays the initiator's bill and vice versa.
	if full.CounterpartyUserID != nil && *full.CounterpartyUserID == userID {
		if full.InitiatorBillAmount != nil {
			return *full.InitiatorBillAmount
		}
		return 0
	}
	if full.CounterpartyBillAmount != nil {
		return *full.CounterpartyBillAmount
	}
	if full.InitiatorBillAmount != nil {
		return *full.InitiatorBillAmount
	}
	return 0
}

func participants(swap *models.Swap) []uuid.UUID {
	out := []uuid.UUID{swap.InitiatorUserID}
	if swap.CounterpartyUserID != nil {
		out = append(out, *swap.CounterpartyUserID)
	}
	return out
}

// SweepExtensions expires unanswered extension requests.
func (s *SwapService) SweepExtensions(ctx context.Context) (int, error) {
	return s.extensionRepo.ExpireStale(ctx, time.Now(), 100)
}
