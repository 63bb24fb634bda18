package assignments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/rentora-admin/internal/shared"
)

// Repository provides PostgreSQL backed persistence for assignments.
type Repository interface {
	AccountIDsFor(ctx context.Context, actorID int64) ([]int64, error)
	ListByAccount(ctx context.Context, accountID int64) ([]Assignment, error)
	Create(ctx context.Context, accountID, actorID, createdBy int64) (Assignment, error)
	Delete(ctx context.Context, id int64) (Assignment, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// AccountIDsFor returns the live set of account ids assigned to the actor.
// Called on every scoped request, so it stays a single indexed query.
func (r *repository) AccountIDsFor(ctx context.Context, actorID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT account_id FROM assignments WHERE actor_id = $1`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) ListByAccount(ctx context.Context, accountID int64) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, actor_id, created_by, created_at
		FROM assignments WHERE account_id = $1 ORDER BY created_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *repository) Create(ctx context.Context, accountID, actorID, createdBy int64) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO assignments (account_id, actor_id, created_by, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, account_id, actor_id, created_by, created_at`,
		accountID, actorID, createdBy, time.Now())
	a, err := scanAssignment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Assignment{}, shared.ErrConflictingTransition
		}
		return Assignment{}, err
	}
	return a, nil
}

func (r *repository) Delete(ctx context.Context, id int64) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM assignments WHERE id = $1
		RETURNING id, account_id, actor_id, created_by, created_at`, id)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, shared.ErrNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	var createdAt pgtype.Timestamptz
	if err := row.Scan(&a.ID, &a.AccountID, &a.ActorID, &a.CreatedBy, &createdAt); err != nil {
		return Assignment{}, err
	}
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	return a, nil
}
