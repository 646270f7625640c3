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

type ExtensionRepo struct {
	pool *pgxpool.Pool
}

func NewExtensionRepo(pool *pgxpool.Pool) *ExtensionRepo {
	return &ExtensionRepo{pool: pool}
}

const extensionColumns = `
	id, swap_id, requester_user_id, extra_hours, status, respond_by, created_at, responded_at`

func scanExtension(row interface{ Scan(...any) error }, e *models.DeadlineExtension) error {
	return row.Scan(
		&e.ID, &e.SwapID, &e.RequesterUserID, &e.ExtraHours, &e.Status,
		&e.RespondBy, &e.CreatedAt, &e.RespondedAt,
	)
}

func (r *ExtensionRepo) Create(ctx context.Context, e *models.DeadlineExtension) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO deadline_extensions (swap_id, requester_user_id, extra_hours, status, respond_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.SwapID, e.RequesterUserID, e.ExtraHours, e.Status, e.RespondBy,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *ExtensionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DeadlineExtension, error) {
	var e models.DeadlineExtension
	err := scanExtension(r.pool.QueryRow(ctx,
		`SELECT`+extensionColumns+` FROM deadline_extensions WHERE id = $1`, id), &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetPendingBySwap returns the unanswered request for a swap, or nil. One
// pending request per swap at a time.
func (r *ExtensionRepo) GetPendingBySwap(ctx context.Context, swapID uuid.UUID) (*models.DeadlineExtension, error) {
	var e models.DeadlineExtension
	err := scanExtension(r.pool.QueryRow(ctx, `
		SELECT`+extensionColumns+` FROM deadline_extensions
		WHERE swap_id = $1 AND status = 'pending'
		LIMIT 1
	`, swapID), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Respond records the counterparty's decision; guarded so a late response
// cannot override an expired or already-answered request.
func (r *ExtensionRepo) Respond(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE deadline_extensions SET status = $1, responded_at = now()
		WHERE id = $2 AND status = 'pending'
	`, status, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ExpireStale marks pending requests past their respond-by instant.
func (r *ExtensionRepo) ExpireStale(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE deadline_extensions SET status = 'expired', responded_at = now()
		WHERE id IN (
			SELECT id FROM deadline_extensions
			WHERE status = 'pending' AND respond_by < $1
			ORDER BY respond_by LIMIT $2
		)
	`, now, limit)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
