package services

import (
	"context"
	"time"

	"github.com/billswap/backend/internal/apperr"
	"github.com/billswap/backend/internal/events"
	"github.com/billswap/backend/internal/models"
	"github.com/billswap/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// activeSwapCounter is the one swap-side read the trust surface needs.
type activeSwapCounter interface {
	CountActiveForUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type TrustService struct {
	trustRepo *repositories.TrustRepo
	swaps     activeSwapCounter
	auditRepo *repositories.AuditRepo
	publisher events.Publisher
	log       *zap.Logger
}

func NewTrustService(
	trustRepo *repositories.TrustRepo,
	swaps activeSwapCounter,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	log *zap.Logger,
) *TrustService {
	return &TrustService{
		trustRepo: trustRepo,
		swaps:     swaps,
		auditRepo: auditRepo,
		publisher: publisher,
		log:       log,
	}
}

func (s *TrustService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.TrustProfile, error) {
	p, err := s.trustRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, err, "trust profile not found")
	}
	s.fillActiveSwaps(ctx, p)
	return p, nil
}

// fillActiveSwaps pins the live concurrency counter onto the stored row.
// The count lives in swaps, not in the trust profile.
func (s *TrustService) fillActiveSwaps(ctx context.Context, p *models.TrustProfile) {
	n, err := s.swaps.CountActiveForUser(ctx, p.UserID)
	if err != nil {
		s.log.Warn("failed to count active swaps",
			zap.String("user_id", p.UserID.String()), zap.Error(err))
		return
	}
	p.ActiveSwaps = n
}

// ApplyOutcome records a swap outcome for one participant. The award marker
// makes this safe to call again for the same (swap, user, outcome): the
// second call changes nothing. Streak milestones and the derived tier are
// refreshed after the delta lands.
func (s *TrustService) ApplyOutcome(ctx context.Context, swapID, userID uuid.UUID, outcome string, amountMinor int64, swapType string) (*models.TrustProfile, error) {
	if _, err := s.trustRepo.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	delta := models.ScoreDelta(outcome, amountMinor, swapType)
	applied, err := s.trustRepo.InsertAward(ctx, &models.TrustAward{
		SwapID:  swapID,
		UserID:  userID,
		Outcome: outcome,
		Delta:   delta,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		// Replay: the delta already landed.
		return s.trustRepo.GetByUserID(ctx, userID)
	}

	profile, err := s.trustRepo.ApplyOutcome(ctx, userID, delta, outcome)
	if err != nil {
		return nil, err
	}

	if bonus, milestone := models.MilestoneBonus(profile.Streak, profile.LastMilestone); bonus > 0 {
		if ok, err := s.trustRepo.ApplyMilestone(ctx, userID, bonus, milestone); err != nil {
			return nil, err
		} else if ok {
			profile, err = s.trustRepo.GetByUserID(ctx, userID)
			if err != nil {
				return nil, err
			}
			s.log.Info("streak milestone awarded",
				zap.String("user_id", userID.String()),
				zap.Int("milestone", milestone),
				zap.Int("bonus", bonus),
			)
		}
	}

	profile.RecomputeTier()
	if err := s.trustRepo.SetTier(ctx, userID, profile.Tier); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorType:  models.ActorSystem,
		Action:     "trust_outcome_" + outcome,
		EntityType: "user",
		EntityID:   &userID,
		Meta: map[string]any{
			"swap_id":   swapID.String(),
			"delta":     delta,
			"new_score": profile.Score,
			"new_tier":  profile.Tier,
		},
	})
	_ = s.publisher.Publish(ctx, events.StreamSwap, events.TrustChanged{
		UserID:   userID,
		SwapID:   swapID,
		Outcome:  outcome,
		Delta:    delta,
		NewScore: profile.Score,
		NewTier:  profile.Tier,
	})

	return profile, nil
}

// SetVerification updates identity-provider verification flags and refreshes
// the tier, since verification raises the effective score.
func (s *TrustService) SetVerification(ctx context.Context, userID uuid.UUID, idVerified, bankLinked, workEmail bool) (*models.TrustProfile, error) {
	if _, err := s.trustRepo.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.trustRepo.SetVerification(ctx, userID, idVerified, bankLinked, workEmail); err != nil {
		return nil, err
	}
	profile, err := s.trustRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.RecomputeTier()
	if err := s.trustRepo.SetTier(ctx, userID, profile.Tier); err != nil {
		return nil, err
	}
	return profile, nil
}

// ApplyEligibilityLock puts the profile inside a penalty window during which
// the user may not enter new swaps.
func (s *TrustService) ApplyEligibilityLock(ctx context.Context, userID uuid.UUID, until time.Time) error {
	if _, err := s.trustRepo.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	if err := s.trustRepo.SetLockedUntil(ctx, userID, &until); err != nil {
		return err
	}
	_ = s.auditRepo.Create(ctx, &models.AuditLog{
		ActorType:  models.ActorSystem,
		Action:     "trust_eligibility_locked",
		EntityType: "user",
		EntityID:   &userID,
		Meta:       map[string]any{"until": until},
	})
	return nil
}
