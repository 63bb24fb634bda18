package accounts

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/rentora-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, accountIDs []int64) ([]Account, int, error)
	Get(ctx context.Context, id int64) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) error
	SetStatus(ctx context.Context, id int64, status string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const accountColumns = `id, name, contact_email, status, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters, accountIDs []int64) ([]Account, int, error) {
	if accountIDs != nil && len(accountIDs) == 0 {
		return []Account{}, 0, nil
	}

	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		where += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.Search+"%")
	}
	if accountIDs != nil {
		argCount++
		where += ` AND id = ANY($` + strconv.Itoa(argCount) + `)`
		args = append(args, accountIDs)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts` + where + ` ORDER BY name`
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

	var result []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, a)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Create(ctx context.Context, account Account) (Account, error) {
	now := time.Now()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, contact_email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING `+accountColumns,
		account.Name, account.ContactEmail, StatusActive, now)
	return scanAccount(row)
}

func (r *repository) Update(ctx context.Context, account Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET name = $2, contact_email = $3, updated_at = $4 WHERE id = $1`,
		account.ID, account.Name, account.ContactEmail, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&a.ID, &a.Name, &a.ContactEmail, &a.Status, &createdAt, &updatedAt); err != nil {
		return Account{}, err
	}
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		a.UpdatedAt = updatedAt.Time
	}
	return a, nil
}
