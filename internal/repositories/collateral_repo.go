package repositories

import (
	"context"
	"errors"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficientCollateral is returned when the guarded lock finds less
// available balance than the requested lock.
var ErrInsufficientCollateral = errors.New("insufficient collateral")

type CollateralRepo struct {
	pool *pgxpool.Pool
}

func NewCollateralRepo(pool *pgxpool.Pool) *CollateralRepo {
	return &CollateralRepo{pool: pool}
}

// CollateralHold is the per-swap lock record; the unique (swap_id, user_id)
// key makes Lock idempotent under retries.
type CollateralHold struct {
	ID      uuid.UUID
	SwapID  uuid.UUID
	UserID  uuid.UUID
	Points  int64
	Credits int64
	Status  string
}

const (
	HoldStatusHeld      = "held"
	HoldStatusReleased  = "released"
	HoldStatusForfeited = "forfeited"
)

func (r *CollateralRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.CollateralEntry, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO collateral_entries (user_id, points)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, models.InitialCollateralPoints)
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

func (r *CollateralRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.CollateralEntry, error) {
	var e models.CollateralEntry
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, points, locked_points, staked_credits, locked_credits, updated_at
		FROM collateral_entries WHERE user_id = $1
	`, userID).Scan(&e.UserID, &e.Points, &e.LockedPoints, &e.StakedCredits, &e.LockedCredits, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Lock holds points (and optionally staked credits) against a swap. The
// balance guard lives in the UPDATE's WHERE clause, so two concurrent locks
// can never overdraw: the second one simply matches no row and the
// transaction rolls back with ErrInsufficientCollateral. A repeat call for
// the same (swap, user) is a no-op.
func (r *CollateralRepo) Lock(ctx context.Context, swapID, userID uuid.UUID, points, credits int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO collateral_holds (swap_id, user_id, points, credits, status)
		VALUES ($1, $2, $3, $4, 'held')
		ON CONFLICT (swap_id, user_id) DO NOTHING
	`, swapID, userID, points, credits)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Already locked for this swap.
		return nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE collateral_entries
		SET locked_points = locked_points + $1, locked_credits = locked_credits + $2,
			updated_at = now()
		WHERE user_id = $3
		  AND points - locked_points >= $1
		  AND staked_credits - locked_credits >= $2
	`, points, credits, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientCollateral
	}
	return tx.Commit(ctx)
}

func (r *CollateralRepo) getHold(ctx context.Context, tx pgx.Tx, swapID, userID uuid.UUID) (*CollateralHold, error) {
	var h CollateralHold
	err := tx.QueryRow(ctx, `
		SELECT id, swap_id, user_id, points, credits, status
		FROM collateral_holds
		WHERE swap_id = $1 AND user_id = $2
		FOR UPDATE
	`, swapID, userID).Scan(&h.ID, &h.SwapID, &h.UserID, &h.Points, &h.Credits, &h.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Release unlocks a hold. withBonus adds the stake success bonus, used only
// when the swap completed. Safe to call twice: a hold that is no longer held
// is skipped.
func (r *CollateralRepo) Release(ctx context.Context, swapID, userID uuid.UUID, withBonus bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	h, err := r.getHold(ctx, tx, swapID, userID)
	if err != nil {
		return err
	}
	if h == nil || h.Status != HoldStatusHeld {
		return nil
	}

	var bonus int64
	if withBonus {
		bonus = models.StakeReturn(h.Credits) - h.Credits
	}
	_, err = tx.Exec(ctx, `
		UPDATE collateral_entries
		SET locked_points = GREATEST(0, locked_points - $1),
			locked_credits = GREATEST(0, locked_credits - $2),
			staked_credits = staked_credits + $3,
			updated_at = now()
		WHERE user_id = $4
	`, h.Points, h.Credits, bonus, userID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE collateral_holds SET status = 'released', resolved_at = now() WHERE id = $1
	`, h.ID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Forfeit seizes a hold on fault: the locked points and credits leave the
// balance entirely. Returns the forfeited amounts so the caller can route a
// partial refund to the other side. Idempotent like Release.
func (r *CollateralRepo) Forfeit(ctx context.Context, swapID, userID uuid.UUID) (points, credits int64, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	h, err := r.getHold(ctx, tx, swapID, userID)
	if err != nil {
		return 0, 0, err
	}
	if h == nil || h.Status != HoldStatusHeld {
		return 0, 0, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE collateral_entries
		SET points = GREATEST(0, points - $1),
			locked_points = GREATEST(0, locked_points - $1),
			staked_credits = GREATEST(0, staked_credits - $2),
			locked_credits = GREATEST(0, locked_credits - $2),
			updated_at = now()
		WHERE user_id = $3
	`, h.Points, h.Credits, userID)
	if err != nil {
		return 0, 0, err
	}
	_, err = tx.Exec(ctx, `
		UPDATE collateral_holds SET status = 'forfeited', resolved_at = now() WHERE id = $1
	`, h.ID)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return h.Points, h.Credits, nil
}

// AddStakedCredits tops up the stakeable credit balance.
func (r *CollateralRepo) AddStakedCredits(ctx context.Context, userID uuid.UUID, credits int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE collateral_entries SET staked_credits = staked_credits + $1, updated_at = now() WHERE user_id = $2
	`, credits, userID)
	return err
}

// CreditPoints adds points to a balance, used for dispute-winner refunds.
func (r *CollateralRepo) CreditPoints(ctx context.Context, userID uuid.UUID, points int64) error {
	if points <= 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE collateral_entries SET points = points + $1, updated_at = now() WHERE user_id = $2
	`, points, userID)
	return err
}
