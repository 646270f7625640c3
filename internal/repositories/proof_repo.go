package repositories

import (
	"context"
	"time"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProofRepo struct {
	pool *pgxpool.Pool
}

func NewProofRepo(pool *pgxpool.Pool) *ProofRepo {
	return &ProofRepo{pool: pool}
}

const proofColumns = `
	id, swap_id, submitter_user_id, proof_type, url, status,
	review_deadline, resubmit_count, created_at, updated_at`

func scanProof(row interface{ Scan(...any) error }, p *models.Proof) error {
	return row.Scan(
		&p.ID, &p.SwapID, &p.SubmitterUserID, &p.ProofType, &p.URL, &p.Status,
		&p.ReviewDeadline, &p.ResubmitCount, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *ProofRepo) Create(ctx context.Context, p *models.Proof) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO swap_proofs (swap_id, submitter_user_id, proof_type, url, status,
		                         review_deadline, resubmit_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.SwapID, p.SubmitterUserID, p.ProofType, p.URL, p.Status,
		p.ReviewDeadline, p.ResubmitCount,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProofRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Proof, error) {
	var p models.Proof
	err := scanProof(r.pool.QueryRow(ctx, `SELECT`+proofColumns+` FROM swap_proofs WHERE id = $1`, id), &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProofRepo) ListBySwap(ctx context.Context, swapID uuid.UUID) ([]models.Proof, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+proofColumns+` FROM swap_proofs WHERE swap_id = $1 ORDER BY created_at
	`, swapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Proof
	for rows.Next() {
		var p models.Proof
		if err := scanProof(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CountBySubmitter counts all proofs one participant has submitted for a
// swap, for the resubmit cap.
func (r *ProofRepo) CountBySubmitter(ctx context.Context, swapID, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM swap_proofs WHERE swap_id = $1 AND submitter_user_id = $2
	`, swapID, userID).Scan(&n)
	return n, err
}

// SetStatusIf flips a proof's status only while it is still pending, so a
// manual review and the auto-accept sweep cannot both decide it.
func (r *ProofRepo) SetStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE swap_proofs SET status = $1, updated_at = now() WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AutoAcceptOverdue flips pending proofs past their review deadline to
// auto_accepted and returns the affected swap ids for completion
// re-evaluation. Disputed swaps are skipped: filing freezes pending proofs
// until the arbiter decides.
func (r *ProofRepo) AutoAcceptOverdue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		UPDATE swap_proofs SET status = 'auto_accepted', updated_at = now()
		WHERE id IN (
			SELECT p.id FROM swap_proofs p
			JOIN swaps s ON s.id = p.swap_id
			WHERE p.status = 'pending' AND p.review_deadline < $1
			  AND s.status = 'awaiting_proof'
			ORDER BY p.review_deadline LIMIT $2
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
