package repositories

import (
	"context"
	"fmt"

	"github.com/billswap/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BillRepo struct {
	pool *pgxpool.Pool
}

func NewBillRepo(pool *pgxpool.Pool) *BillRepo {
	return &BillRepo{pool: pool}
}

func (r *BillRepo) Create(ctx context.Context, b *models.Bill) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO bills (user_id, amount_minor, category, provider, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, b.UserID, b.AmountMinor, b.Category, b.Provider, b.DueDate, b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BillRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	var b models.Bill
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, amount_minor, category, provider, due_date, status, created_at, updated_at
		FROM bills WHERE id = $1
	`, id).Scan(&b.ID, &b.UserID, &b.AmountMinor, &b.Category, &b.Provider, &b.DueDate, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

type BillFilter struct {
	UserID      *uuid.UUID
	ExcludeUser *uuid.UUID
	Status      *string
	Category    *string
	Limit       int
	Offset      int
}

func (r *BillRepo) List(ctx context.Context, f BillFilter) ([]models.Bill, error) {
	query := `
		SELECT id, user_id, amount_minor, category, provider, due_date, status, created_at, updated_at
		FROM bills
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.UserID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *f.UserID)
		argIdx++
	}
	if f.ExcludeUser != nil {
		where = append(where, fmt.Sprintf("user_id <> $%d", argIdx))
		args = append(args, *f.ExcludeUser)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if f.Category != nil {
		where = append(where, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *f.Category)
		argIdx++
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
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []models.Bill
	for rows.Next() {
		var b models.Bill
		if err := rows.Scan(&b.ID, &b.UserID, &b.AmountMinor, &b.Category, &b.Provider, &b.DueDate, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, nil
}

// UpdateStatusIf flips the bill status only when the current status matches.
// Returns false when the guard failed, so a lost race is visible to the
// caller instead of silently overwriting.
func (r *BillRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bills SET status = $1, updated_at = now() WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *BillRepo) Update(ctx context.Context, b *models.Bill) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bills SET amount_minor = $1, category = $2, provider = $3, due_date = $4, updated_at = now()
		WHERE id = $5 AND status IN ('draft', 'active')
	`, b.AmountMinor, b.Category, b.Provider, b.DueDate, b.ID)
	return err
}
