package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SwapRepo struct {
	pool *pgxpool.Pool
}

func NewSwapRepo(pool *pgxpool.Pool) *SwapRepo {
	return &SwapRepo{pool: pool}
}

const swapColumns = `
	id, initiator_user_id, counterparty_user_id, initiator_bill_id, counterparty_bill_id,
	swap_type, status, initiator_fee_minor, counterparty_fee_minor,
	initiator_fee_paid, counterparty_fee_paid, accept_deadline, proof_due_at,
	completed_at, failed_at, version, created_at, updated_at`

func scanSwap(row interface{ Scan(...any) error }, s *models.Swap) error {
	return row.Scan(
		&s.ID, &s.InitiatorUserID, &s.CounterpartyUserID, &s.InitiatorBillID, &s.CounterpartyBillID,
		&s.SwapType, &s.Status, &s.InitiatorFeeMinor, &s.CounterpartyFeeMinor,
		&s.InitiatorFeePaid, &s.CounterpartyFeePaid, &s.AcceptDeadline, &s.ProofDueAt,
		&s.CompletedAt, &s.FailedAt, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
}

func (r *SwapRepo) Create(ctx context.Context, s *models.Swap) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO swaps (initiator_user_id, initiator_bill_id, swap_type, status,
		                   initiator_fee_minor, counterparty_fee_minor, accept_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, version, created_at, updated_at
	`, s.InitiatorUserID, s.InitiatorBillID, s.SwapType, s.Status,
		s.InitiatorFeeMinor, s.CounterpartyFeeMinor, s.AcceptDeadline,
	).Scan(&s.ID, &s.Version, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SwapRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	var s models.Swap
	err := scanSwap(r.pool.QueryRow(ctx, `SELECT`+swapColumns+` FROM swaps WHERE id = $1`, id), &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SwapRepo) GetByIDWithBills(ctx context.Context, id uuid.UUID) (*models.SwapWithBills, error) {
	var s models.SwapWithBills
	err := r.pool.QueryRow(ctx, `
		SELECT s.id, s.initiator_user_id, s.counterparty_user_id, s.initiator_bill_id, s.counterparty_bill_id,
		       s.swap_type, s.status, s.initiator_fee_minor, s.counterparty_fee_minor,
		       s.initiator_fee_paid, s.counterparty_fee_paid, s.accept_deadline, s.proof_due_at,
		       s.completed_at, s.failed_at, s.version, s.created_at, s.updated_at,
		       ib.amount_minor, ib.category, cb.amount_minor, cb.category
		FROM swaps s
		JOIN bills ib ON ib.id = s.initiator_bill_id
		LEFT JOIN bills cb ON cb.id = s.counterparty_bill_id
		WHERE s.id = $1
	`, id).Scan(
		&s.ID, &s.InitiatorUserID, &s.CounterpartyUserID, &s.InitiatorBillID, &s.CounterpartyBillID,
		&s.SwapType, &s.Status, &s.InitiatorFeeMinor, &s.CounterpartyFeeMinor,
		&s.InitiatorFeePaid, &s.CounterpartyFeePaid, &s.AcceptDeadline, &s.ProofDueAt,
		&s.CompletedAt, &s.FailedAt, &s.Version, &s.CreatedAt, &s.UpdatedAt,
		&s.InitiatorBillAmount, &s.InitiatorBillCategory, &s.CounterpartyBillAmount, &s.CounterpartyBillCategory,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type SwapFilter struct {
	ParticipantUserID *uuid.UUID
	Status            *string
	ActiveOnly        bool // excludes terminal statuses
	Limit             int
	Offset            int
}

func (r *SwapRepo) List(ctx context.Context, f SwapFilter) ([]models.Swap, error) {
	query := `SELECT` + swapColumns + ` FROM swaps`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.ParticipantUserID != nil {
		where = append(where, fmt.Sprintf("(initiator_user_id = $%d OR counterparty_user_id = $%d)", argIdx, argIdx))
		args = append(args, *f.ParticipantUserID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if f.ActiveOnly {
		where = append(where, "status NOT IN ('completed', 'failed', 'cancelled')")
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []models.Swap
	for rows.Next() {
		var s models.Swap
		if err := scanSwap(rows, &s); err != nil {
			return nil, err
		}
		swaps = append(swaps, s)
	}
	return swaps, nil
}

// TransitionStatus performs the compare-and-swap at the store boundary:
// the row changes only if it is still in the expected from-status, and the
// optimistic version counter advances with it. A false return means another
// actor (participant or sweep) won the race.
func (r *SwapRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE swaps SET status = $1, version = version + 1, updated_at = now(),
			completed_at = CASE WHEN $1 = 'completed' THEN now() ELSE completed_at END,
			failed_at    = CASE WHEN $1 = 'failed'    THEN now() ELSE failed_at END
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AttachCounterparty binds the accepting side while the swap is still an
// open offer; status-guarded so a withdrawn or expired offer cannot be
// accepted late.
func (r *SwapRepo) AttachCounterparty(ctx context.Context, id, counterpartyID uuid.UUID, counterpartyBillID *uuid.UUID, swapType string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE swaps SET counterparty_user_id = $1, counterparty_bill_id = $2, swap_type = $3,
			version = version + 1, updated_at = now()
		WHERE id = $4 AND status = 'offered' AND counterparty_user_id IS NULL
	`, counterpartyID, counterpartyBillID, swapType, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFeePaid records one side's fee confirmation. Idempotent: confirming an
// already-paid fee affects no rows and returns false without error.
func (r *SwapRepo) MarkFeePaid(ctx context.Context, id uuid.UUID, initiatorSide bool) (bool, error) {
	column := "counterparty_fee_paid"
	if initiatorSide {
		column = "initiator_fee_paid"
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE swaps SET `+column+` = true, version = version + 1, updated_at = now()
		WHERE id = $1 AND status = 'accepted_pending_fee' AND `+column+` = false
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SwapRepo) SetProofDue(ctx context.Context, id uuid.UUID, due time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE swaps SET proof_due_at = $1, updated_at = now() WHERE id = $2
	`, due, id)
	return err
}

// ExtendProofDue pushes the proof deadline out by extraHours, only while
// proofs are still being collected.
func (r *SwapRepo) ExtendProofDue(ctx context.Context, id uuid.UUID, extraHours int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE swaps SET proof_due_at = proof_due_at + ($1 || ' hours')::interval,
			version = version + 1, updated_at = now()
		WHERE id = $2 AND status = 'awaiting_proof' AND proof_due_at IS NOT NULL
	`, fmt.Sprintf("%d", extraHours), id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetFees applies an accepted terms version's fee split.
func (r *SwapRepo) SetFees(ctx context.Context, id uuid.UUID, initiatorFee, counterpartyFee int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE swaps SET initiator_fee_minor = $1, counterparty_fee_minor = $2, updated_at = now()
		WHERE id = $3
	`, initiatorFee, counterpartyFee, id)
	return err
}

// GetProofOverdue returns swaps still awaiting proof past their proof
// deadline; the sweep decides outcomes based on what was submitted.
func (r *SwapRepo) GetProofOverdue(ctx context.Context, now time.Time, limit int) ([]models.Swap, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+swapColumns+`
		FROM swaps
		WHERE status = 'awaiting_proof' AND proof_due_at IS NOT NULL AND proof_due_at < $1
		ORDER BY proof_due_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []models.Swap
	for rows.Next() {
		var s models.Swap
		if err := scanSwap(rows, &s); err != nil {
			return nil, err
		}
		swaps = append(swaps, s)
	}
	return swaps, nil
}

// CountActiveForUser counts non-terminal swaps the user participates in,
// for tier concurrency caps.
func (r *SwapRepo) CountActiveForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM swaps
		WHERE (initiator_user_id = $1 OR counterparty_user_id = $1)
		  AND status NOT IN ('completed', 'failed', 'cancelled')
	`, userID).Scan(&n)
	return n, err
}

// GetExpiredOffers returns open offers past their accept deadline, for the
// sweep to cancel.
func (r *SwapRepo) GetExpiredOffers(ctx context.Context, now time.Time, limit int) ([]models.Swap, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+swapColumns+`
		FROM swaps
		WHERE status = 'offered' AND accept_deadline < $1
		ORDER BY accept_deadline
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []models.Swap
	for rows.Next() {
		var s models.Swap
		if err := scanSwap(rows, &s); err != nil {
			return nil, err
		}
		swaps = append(swaps, s)
	}
	return swaps, nil
}
