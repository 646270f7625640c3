package repositories

import (
	"context"
	"time"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TrustRepo struct {
	pool *pgxpool.Pool
}

func NewTrustRepo(pool *pgxpool.Pool) *TrustRepo {
	return &TrustRepo{pool: pool}
}

const trustColumns = `
	user_id, score, tier, completed_swaps, failed_swaps, disputed_swaps, no_shows,
	streak, last_milestone, id_verified, bank_linked, work_email_verified,
	locked_until, updated_at`

func scanTrust(row interface{ Scan(...any) error }, p *models.TrustProfile) error {
	return row.Scan(
		&p.UserID, &p.Score, &p.Tier, &p.CompletedSwaps, &p.FailedSwaps, &p.DisputedSwaps, &p.NoShows,
		&p.Streak, &p.LastMilestone, &p.IDVerified, &p.BankLinked, &p.WorkEmailVerified,
		&p.LockedUntil, &p.UpdatedAt,
	)
}

// GetOrCreate returns the user's profile, seeding it at the initial score on
// first touch. The insert is a no-op when the row already exists.
func (r *TrustRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.TrustProfile, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trust_profiles (user_id, score, tier)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, models.InitialTrustScore, models.ComputeTier(models.InitialTrustScore, 0, false, false, false))
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

func (r *TrustRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.TrustProfile, error) {
	var p models.TrustProfile
	err := scanTrust(r.pool.QueryRow(ctx,
		`SELECT`+trustColumns+` FROM trust_profiles WHERE user_id = $1`, userID), &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserIDs loads profiles for a set of users in one query; users with no
// profile yet are simply absent from the result.
func (r *TrustRepo) GetByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.TrustProfile, error) {
	out := make(map[uuid.UUID]models.TrustProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT`+trustColumns+` FROM trust_profiles WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p models.TrustProfile
		if err := scanTrust(rows, &p); err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, nil
}

// InsertAward records the idempotency marker for a score delta. The unique
// (swap_id, user_id, outcome) key absorbs replays: a duplicate insert affects
// no rows and reports applied=false, and the caller must skip the delta.
func (r *TrustRepo) InsertAward(ctx context.Context, a *models.TrustAward) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO trust_awards (swap_id, user_id, outcome, delta)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (swap_id, user_id, outcome) DO NOTHING
	`, a.SwapID, a.UserID, a.Outcome, a.Delta)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyOutcome applies a score delta and the outcome's counter and streak
// effects in one statement, clamped in SQL so concurrent deltas cannot push
// the score out of range. Returns the updated profile.
func (r *TrustRepo) ApplyOutcome(ctx context.Context, userID uuid.UUID, delta int, outcome string) (*models.TrustProfile, error) {
	var p models.TrustProfile
	err := scanTrust(r.pool.QueryRow(ctx, `
		UPDATE trust_profiles SET
			score = LEAST($1, GREATEST(0, score + $2)),
			completed_swaps = completed_swaps + CASE WHEN $3 = 'completed' THEN 1 ELSE 0 END,
			failed_swaps    = failed_swaps    + CASE WHEN $3 = 'failed_at_fault' THEN 1 ELSE 0 END,
			no_shows        = no_shows        + CASE WHEN $3 = 'no_show' THEN 1 ELSE 0 END,
			disputed_swaps  = disputed_swaps  + CASE WHEN $3 IN ('dispute_loss', 'dispute_win') THEN 1 ELSE 0 END,
			streak = CASE
				WHEN $3 = 'completed' THEN streak + 1
				WHEN $3 = 'dispute_win' THEN streak
				ELSE 0
			END,
			updated_at = now()
		WHERE user_id = $4
		RETURNING`+trustColumns, models.MaxTrustScore, delta, outcome, userID), &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyMilestone credits a streak milestone bonus at most once: the
// last_milestone guard makes a replayed crossing a no-op.
func (r *TrustRepo) ApplyMilestone(ctx context.Context, userID uuid.UUID, bonus, milestone int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE trust_profiles SET
			score = LEAST($1, score + $2),
			last_milestone = $3,
			updated_at = now()
		WHERE user_id = $4 AND last_milestone < $3
	`, models.MaxTrustScore, bonus, milestone, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetTier persists the derived tier.
func (r *TrustRepo) SetTier(ctx context.Context, userID uuid.UUID, tier int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE trust_profiles SET tier = $1, updated_at = now() WHERE user_id = $2
	`, tier, userID)
	return err
}

// SetVerification updates the verification flags from the identity provider.
func (r *TrustRepo) SetVerification(ctx context.Context, userID uuid.UUID, idVerified, bankLinked, workEmail bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE trust_profiles SET id_verified = $1, bank_linked = $2, work_email_verified = $3,
			updated_at = now()
		WHERE user_id = $4
	`, idVerified, bankLinked, workEmail, userID)
	return err
}

// SetLockedUntil applies or clears an eligibility lock.
func (r *TrustRepo) SetLockedUntil(ctx context.Context, userID uuid.UUID, until *time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE trust_profiles SET locked_until = $1, updated_at = now() WHERE user_id = $2
	`, until, userID)
	return err
}
