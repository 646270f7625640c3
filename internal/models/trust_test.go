package models

import (
	"testing"
	"time"
)

func TestScoreDelta(t *testing.T) {
	tests := []struct {
		name     string
		outcome  string
		amount   int64
		swapType string
		expected int
	}{
		{"completed small bill", OutcomeCompleted, 1000, SwapTypeTwoSided, 18},
		{"completed mid bill", OutcomeCompleted, 10_000, SwapTypeTwoSided, 23},
		{"completed huge bill capped", OutcomeCompleted, 1_000_000, SwapTypeTwoSided, 30},
		{"completed assist halved", OutcomeCompleted, 10_000, SwapTypeOneSidedAssist, 11},
		{"failed at fault", OutcomeFailedAtFault, 10_000, SwapTypeTwoSided, -45},
		{"no-show flat", OutcomeNoShow, 10_000, SwapTypeTwoSided, -60},
		{"dispute loss", OutcomeDisputeLoss, 4000, SwapTypeTwoSided, -52},
		{"unknown outcome", "bogus", 10_000, SwapTypeTwoSided, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreDelta(tt.outcome, tt.amount, tt.swapType); got != tt.expected {
				t.Errorf("ScoreDelta(%q, %d, %q) = %d, want %d", tt.outcome, tt.amount, tt.swapType, got, tt.expected)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	if ClampScore(-10) != 0 {
		t.Error("negative score should clamp to 0")
	}
	if ClampScore(MaxTrustScore+50) != MaxTrustScore {
		t.Error("overshoot should clamp to max")
	}
	if ClampScore(500) != 500 {
		t.Error("in-range score should pass through")
	}
}

func TestComputeTier(t *testing.T) {
	tests := []struct {
		name      string
		score     int
		completed int
		id, bank  bool
		email     bool
		expected  int
	}{
		{"fresh user", InitialTrustScore, 0, false, false, false, 1},
		{"zero score", 0, 0, false, false, false, 0},
		{"established", 300, 8, false, false, false, 2},
		{"verification bumps tier", 220, 3, true, false, true, 2},
		{"tier4 score without volume", 700, 5, false, false, false, 3},
		{"tier4 with volume", 700, 12, false, false, false, 4},
		{"tier5 score without volume", 900, 12, false, false, false, 4},
		{"tier5 with volume", 900, 30, false, false, false, 5},
		{"verification cannot buy tier4", 600, 2, true, true, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTier(tt.score, tt.completed, tt.id, tt.bank, tt.email)
			if got != tt.expected {
				t.Errorf("ComputeTier(%d, %d, %v, %v, %v) = %d, want %d",
					tt.score, tt.completed, tt.id, tt.bank, tt.email, got, tt.expected)
			}
		})
	}
}

func TestTierGatesAreMonotonic(t *testing.T) {
	for tier := 1; tier <= MaxTier; tier++ {
		if MaxBillAmountForTier(tier) < MaxBillAmountForTier(tier-1) {
			t.Errorf("bill cap decreases from tier %d to %d", tier-1, tier)
		}
		if MaxActiveSwapsForTier(tier) < MaxActiveSwapsForTier(tier-1) {
			t.Errorf("concurrency cap decreases from tier %d to %d", tier-1, tier)
		}
	}
	// Out-of-range tiers clamp rather than panic.
	if MaxBillAmountForTier(-1) != MaxBillAmountForTier(0) {
		t.Error("negative tier should clamp to 0")
	}
	if MaxActiveSwapsForTier(99) != MaxActiveSwapsForTier(MaxTier) {
		t.Error("oversized tier should clamp to max")
	}
}

func TestMilestoneBonus(t *testing.T) {
	tests := []struct {
		name          string
		streak        int
		lastMilestone int
		wantBonus     int
		wantMilestone int
	}{
		{"below first milestone", 4, 0, 0, 0},
		{"hits first milestone", 5, 0, 10, 5},
		{"re-check after award is no-op", 5, 5, 0, 5},
		{"hits second milestone", 10, 5, 20, 10},
		{"jump across two milestones", 25, 5, 60, 25},
		{"top milestone", 50, 25, 75, 50},
		{"beyond top milestone", 60, 50, 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bonus, milestone := MilestoneBonus(tt.streak, tt.lastMilestone)
			if bonus != tt.wantBonus || milestone != tt.wantMilestone {
				t.Errorf("MilestoneBonus(%d, %d) = (%d, %d), want (%d, %d)",
					tt.streak, tt.lastMilestone, bonus, milestone, tt.wantBonus, tt.wantMilestone)
			}
		})
	}
}

func TestSuccessRate(t *testing.T) {
	p := TrustProfile{CompletedSwaps: 9, FailedSwaps: 1}
	if got := p.SuccessRate(); got != 0.9 {
		t.Errorf("SuccessRate() = %v, want 0.9", got)
	}
	empty := TrustProfile{}
	if got := empty.SuccessRate(); got != 0 {
		t.Errorf("empty SuccessRate() = %v, want 0", got)
	}
}

func TestIsEligibilityLocked(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	locked := TrustProfile{LockedUntil: &future}
	if !locked.IsEligibilityLocked(now) {
		t.Error("profile with future lock should be locked")
	}
	expired := TrustProfile{LockedUntil: &past}
	if expired.IsEligibilityLocked(now) {
		t.Error("profile with past lock should not be locked")
	}
	unlocked := TrustProfile{}
	if unlocked.IsEligibilityLocked(now) {
		t.Error("profile without lock should not be locked")
	}
}
