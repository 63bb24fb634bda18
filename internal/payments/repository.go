package payments

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/rentora-admin/internal/shared"
)

// Repository reads payment records.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, accountIDs []int64) ([]Payment, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters, accountIDs []int64) ([]Payment, int, error) {
	if accountIDs != nil && len(accountIDs) == 0 {
		return []Payment{}, 0, nil
	}

	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		where += ` AND reference ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.Search+"%")
	}
	if accountIDs != nil {
		argCount++
		where += ` AND account_id = ANY($` + strconv.Itoa(argCount) + `)`
		args = append(args, accountIDs)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, account_id, amount_cents, currency, status, reference, occurred_at FROM payments` +
		where + ` ORDER BY occurred_at DESC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		var p Payment
		var occurredAt pgtype.Timestamptz
		if err := rows.Scan(&p.ID, &p.AccountID, &p.AmountCents, &p.Currency, &p.Status, &p.Reference, &occurredAt); err != nil {
			return nil, 0, err
		}
		if occurredAt.Valid {
			p.OccurredAt = occurredAt.Time
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}
