package models

import (
	"time"

	"github.com/google/uuid"
)

// Score bounds and tier thresholds. Tier is always derived, never stored
// authority: RecomputeTier runs after every score or counter mutation.
const (
	MaxTrustScore     = 1000
	InitialTrustScore = 100
	MaxTier           = 5
)

// Swap outcomes, as recorded in the trust award marker. One delta per
// (swap, participant, outcome) triple.
const (
	OutcomeCompleted     = "completed"
	OutcomeFailedAtFault = "failed_at_fault"
	OutcomeNoShow        = "no_show"
	OutcomeDisputeLoss   = "dispute_loss"
	OutcomeDisputeWin    = "dispute_win"
)

// Base score deltas per outcome, before amount scaling.
const (
	deltaCompleted     = 18
	deltaFailedAtFault = -40
	deltaNoShow        = -60
	deltaDisputeLoss   = -50
)

// amountScaleDivisor converts bill size to bonus points; the bonus is capped
// so large bills cannot dominate history.
const (
	amountScaleDivisor = 2000
	amountScaleCap     = 12
)

// Tier score thresholds: tier n requires score >= tierThresholds[n].
var tierThresholds = [MaxTier + 1]int{0, 100, 250, 450, 650, 850}

// Tier gates.
var (
	// maxBillAmountByTier caps the bill size a user may lock into a swap.
	maxBillAmountByTier = [MaxTier + 1]int64{5_000, 10_000, 25_000, 50_000, 100_000, 250_000}

	// maxActiveSwapsByTier caps concurrent non-terminal swaps.
	maxActiveSwapsByTier = [MaxTier + 1]int{1, 2, 3, 5, 8, 12}
)

// MinTierOneSidedAssist gates eligibility for one-sided assists: supporting a
// stranger's bill with nothing locked on the other side needs earned standing.
const MinTierOneSidedAssist = 2

// EligibilityLockWindow is how long an eligibility-lock penalty keeps a user
// out of new swaps.
const EligibilityLockWindow = 7 * 24 * time.Hour

// Streak milestones and their one-time bonuses.
var streakMilestones = []struct {
	Streak int
	Bonus  int
}{
	{5, 10},
	{10, 20},
	{25, 40},
	{50, 75},
}

type TrustProfile struct {
	UserID            uuid.UUID  `json:"user_id"`
	Score             int        `json:"score"`
	Tier              int        `json:"tier"`
	CompletedSwaps    int        `json:"completed_swaps"`
	FailedSwaps       int        `json:"failed_swaps"`
	DisputedSwaps     int        `json:"disputed_swaps"`
	NoShows           int        `json:"no_shows"`
	Streak            int        `json:"streak"`
	LastMilestone     int        `json:"last_milestone"`
	ActiveSwaps       int        `json:"active_swaps"`
	IDVerified        bool       `json:"id_verified"`
	BankLinked        bool       `json:"bank_linked"`
	WorkEmailVerified bool       `json:"work_email_verified"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TrustAward is the idempotency marker for a score delta: the unique
// (swap, user, outcome) key guarantees at-most-once application under
// replayed events.
type TrustAward struct {
	ID        uuid.UUID `json:"id"`
	SwapID    uuid.UUID `json:"swap_id"`
	UserID    uuid.UUID `json:"user_id"`
	Outcome   string    `json:"outcome"`
	Delta     int       `json:"delta"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoreDelta computes the signed score change for an outcome, scaled by the
// bill amount and halved for one-sided assists. Dispute wins carry no base
// delta here; the winner's refund is computed from the sunk collateral.
func ScoreDelta(outcome string, amountMinor int64, swapType string) int {
	var base int
	switch outcome {
	case OutcomeCompleted:
		base = deltaCompleted + amountBonus(amountMinor)
	case OutcomeFailedAtFault:
		base = deltaFailedAtFault - amountBonus(amountMinor)
	case OutcomeNoShow:
		base = deltaNoShow
	case OutcomeDisputeLoss:
		base = deltaDisputeLoss - amountBonus(amountMinor)
	default:
		return 0
	}
	if swapType == SwapTypeOneSidedAssist {
		base /= 2
	}
	return base
}

func amountBonus(amountMinor int64) int {
	b := int(amountMinor / amountScaleDivisor)
	if b > amountScaleCap {
		b = amountScaleCap
	}
	return b
}

// ClampScore keeps a running score inside [0, MaxTrustScore].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxTrustScore {
		return MaxTrustScore
	}
	return score
}

// ComputeTier derives the tier from score, verification flags, and completed
// count. Verification contributes an effective-score bonus; the top tiers
// additionally require real history so verification alone cannot buy them.
func ComputeTier(score, completedSwaps int, idVerified, bankLinked, workEmailVerified bool) int {
	effective := score
	if idVerified {
		effective += 25
	}
	if bankLinked {
		effective += 25
	}
	if workEmailVerified {
		effective += 15
	}

	tier := 0
	for t := MaxTier; t >= 0; t-- {
		if effective >= tierThresholds[t] {
			tier = t
			break
		}
	}

	// Tiers 4+ require demonstrated volume, not just points.
	if tier >= 4 && completedSwaps < 10 {
		tier = 3
	}
	if tier == 5 && completedSwaps < 25 {
		tier = 4
	}
	return tier
}

// RecomputeTier refreshes the derived tier in place.
func (p *TrustProfile) RecomputeTier() {
	p.Tier = ComputeTier(p.Score, p.CompletedSwaps, p.IDVerified, p.BankLinked, p.WorkEmailVerified)
}

// MaxBillAmountForTier returns the per-swap bill cap.
func MaxBillAmountForTier(tier int) int64 {
	if tier < 0 {
		tier = 0
	}
	if tier > MaxTier {
		tier = MaxTier
	}
	return maxBillAmountByTier[tier]
}

// MaxActiveSwapsForTier returns the concurrency cap.
func MaxActiveSwapsForTier(tier int) int {
	if tier < 0 {
		tier = 0
	}
	if tier > MaxTier {
		tier = MaxTier
	}
	return maxActiveSwapsByTier[tier]
}

// MilestoneBonus returns the one-time bonus for crossing a streak milestone,
// and the milestone that should be recorded as awarded. Returns (0, last)
// when no new milestone was crossed, which makes re-entrant recalculation a
// no-op.
func MilestoneBonus(streak, lastMilestone int) (bonus, milestone int) {
	milestone = lastMilestone
	for _, m := range streakMilestones {
		if streak >= m.Streak && m.Streak > lastMilestone {
			bonus += m.Bonus
			milestone = m.Streak
		}
	}
	return bonus, milestone
}

// SuccessRate is completed / (completed + failed + no-shows), in [0, 1].
func (p *TrustProfile) SuccessRate() float64 {
	total := p.CompletedSwaps + p.FailedSwaps + p.NoShows
	if total == 0 {
		return 0
	}
	return float64(p.CompletedSwaps) / float64(total)
}

// IsEligibilityLocked reports whether the profile is inside a penalty window.
func (p *TrustProfile) IsEligibilityLocked(now time.Time) bool {
	return p.LockedUntil != nil && now.Before(*p.LockedUntil)
}
