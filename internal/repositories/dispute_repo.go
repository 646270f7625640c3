package repositories

import (
	"context"
	"errors"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DisputeRepo struct {
	pool *pgxpool.Pool
}

func NewDisputeRepo(pool *pgxpool.Pool) *DisputeRepo {
	return &DisputeRepo{pool: pool}
}

const disputeColumns = `
	id, swap_id, reporter_user_id, reported_user_id, reason, details, status,
	at_fault_user_id, resolution, filing_deadline, created_at, resolved_at`

func scanDispute(row interface{ Scan(...any) error }, d *models.Dispute) error {
	return row.Scan(
		&d.ID, &d.SwapID, &d.ReporterUserID, &d.ReportedUserID, &d.Reason, &d.Details, &d.Status,
		&d.AtFaultUserID, &d.Resolution, &d.FilingDeadline, &d.CreatedAt, &d.ResolvedAt,
	)
}

func (r *DisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO disputes (swap_id, reporter_user_id, reported_user_id, reason, details,
		                      status, filing_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, d.SwapID, d.ReporterUserID, d.ReportedUserID, d.Reason, d.Details,
		d.Status, d.FilingDeadline,
	).Scan(&d.ID, &d.CreatedAt)
}

func (r *DisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := scanDispute(r.pool.QueryRow(ctx, `SELECT`+disputeColumns+` FROM disputes WHERE id = $1`, id), &d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetOpenBySwap returns the undecided dispute for a swap, or nil. A swap
// carries at most one open dispute at a time.
func (r *DisputeRepo) GetOpenBySwap(ctx context.Context, swapID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := scanDispute(r.pool.QueryRow(ctx, `
		SELECT`+disputeColumns+` FROM disputes
		WHERE swap_id = $1 AND status IN ('open', 'investigating')
		LIMIT 1
	`, swapID), &d)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DisputeRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+disputeColumns+` FROM disputes
		WHERE status IN ('open', 'investigating')
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Dispute
	for rows.Next() {
		var d models.Dispute
		if err := scanDispute(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// MarkInvestigating flags an open dispute as picked up by an arbiter.
func (r *DisputeRepo) MarkInvestigating(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE disputes SET status = 'investigating' WHERE id = $1 AND status = 'open'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Decide records the arbiter's verdict; guarded against double decisions.
func (r *DisputeRepo) Decide(ctx context.Context, id uuid.UUID, status string, atFault *uuid.UUID, resolution string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE disputes SET status = $1, at_fault_user_id = $2, resolution = $3, resolved_at = now()
		WHERE id = $4 AND status IN ('open', 'investigating')
	`, status, atFault, resolution, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
