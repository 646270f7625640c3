package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TermsRepo struct {
	pool *pgxpool.Pool
}

func NewTermsRepo(pool *pgxpool.Pool) *TermsRepo {
	return &TermsRepo{pool: pool}
}

const termsColumns = `
	id, swap_id, proposer_user_id, version, initiator_fee_minor, counterparty_fee_minor,
	proof_window_hours, fallback_penalty, status, expires_at, created_at`

func scanTerms(row interface{ Scan(...any) error }, t *models.Terms) error {
	return row.Scan(
		&t.ID, &t.SwapID, &t.ProposerUserID, &t.Version, &t.InitiatorFeeMinor, &t.CounterpartyFeeMinor,
		&t.ProofWindowHours, &t.FallbackPenalty, &t.Status, &t.ExpiresAt, &t.CreatedAt,
	)
}

// Create inserts the next terms version. The unique (swap_id, version) index
// makes concurrent counters collide instead of branching the history.
func (r *TermsRepo) Create(ctx context.Context, t *models.Terms) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO swap_terms (swap_id, proposer_user_id, version, initiator_fee_minor,
		                        counterparty_fee_minor, proof_window_hours, fallback_penalty,
		                        status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, t.SwapID, t.ProposerUserID, t.Version, t.InitiatorFeeMinor,
		t.CounterpartyFeeMinor, t.ProofWindowHours, t.FallbackPenalty,
		t.Status, t.ExpiresAt,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *TermsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Terms, error) {
	var t models.Terms
	err := scanTerms(r.pool.QueryRow(ctx, `SELECT`+termsColumns+` FROM swap_terms WHERE id = $1`, id), &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetLatest returns the highest version for a swap, or nil when none exist.
func (r *TermsRepo) GetLatest(ctx context.Context, swapID uuid.UUID) (*models.Terms, error) {
	var t models.Terms
	err := scanTerms(r.pool.QueryRow(ctx, `
		SELECT`+termsColumns+` FROM swap_terms
		WHERE swap_id = $1 ORDER BY version DESC LIMIT 1
	`, swapID), &t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TermsRepo) ListBySwap(ctx context.Context, swapID uuid.UUID) ([]models.Terms, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+termsColumns+` FROM swap_terms WHERE swap_id = $1 ORDER BY version
	`, swapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Terms
	for rows.Next() {
		var t models.Terms
		if err := scanTerms(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// SetStatusIf flips a terms version's status only from the expected one, so
// an accept and a counter racing on the same version cannot both win.
func (r *TermsRepo) SetStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE swap_terms SET status = $1 WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ExpireStale marks proposed versions past their expiry and returns the swap
// ids affected so the sweep can notify participants.
func (r *TermsRepo) ExpireStale(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		UPDATE swap_terms SET status = 'expired'
		WHERE id IN (
			SELECT id FROM swap_terms
			WHERE status = 'proposed' AND expires_at < $1
			ORDER BY expires_at LIMIT $2
		)
		RETURNING swap_id
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swapIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		swapIDs = append(swapIDs, id)
	}
	return swapIDs, nil
}
