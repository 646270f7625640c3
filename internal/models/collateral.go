package models

import (
	"time"

	"github.com/google/uuid"
)

// Collateral sizing: points locked per swap are proportional to the bill,
// with a floor so tiny bills still carry a stake.
const (
	collateralDivisor = 100
	collateralFloor   = 10
	// InitialCollateralPoints seeds a fresh entry so new users can lock
	// collateral for a first small swap.
	InitialCollateralPoints = 100
	// StakeSuccessBonusPct is the bonus returned on staked credits when the
	// swap completes, in percent.
	StakeSuccessBonusPct = 10
)

// CollateralEntry tracks one user's trust-point balance and the portion
// locked across active swaps, plus optional staked credits. Invariants:
// every field non-negative, locked never exceeds balance.
type CollateralEntry struct {
	UserID        uuid.UUID `json:"user_id"`
	Points        int64     `json:"points"`
	LockedPoints  int64     `json:"locked_points"`
	StakedCredits int64     `json:"staked_credits"`
	LockedCredits int64     `json:"locked_credits"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Available is the lockable remainder.
func (e *CollateralEntry) Available() int64 {
	return e.Points - e.LockedPoints
}

// LockAmountForBill derives the points to lock for a bill of the given size.
func LockAmountForBill(amountMinor int64) int64 {
	amt := amountMinor / collateralDivisor
	if amt < collateralFloor {
		amt = collateralFloor
	}
	return amt
}

// StakeReturn computes the credits returned on success: the stake plus bonus.
func StakeReturn(staked int64) int64 {
	return staked + staked*StakeSuccessBonusPct/100
}
