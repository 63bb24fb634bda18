package vehicles

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

// Repository provides PostgreSQL backed persistence for vehicles.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, accountIDs []int64) ([]Vehicle, int, error)
	Get(ctx context.Context, id int64) (Vehicle, error)
	Create(ctx context.Context, vehicle Vehicle) (Vehicle, error)
	Update(ctx context.Context, vehicle Vehicle) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const vehicleColumns = `id, account_id, plate_number, make, model, year, status, daily_rate_cents, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters, accountIDs []int64) ([]Vehicle, int, error) {
	if accountIDs != nil && len(accountIDs) == 0 {
		return []Vehicle{}, 0, nil
	}

	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		where += ` AND (plate_number ILIKE $` + strconv.Itoa(argCount) + ` OR make ILIKE $` + strconv.Itoa(argCount) + ` OR model ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if accountIDs != nil {
		argCount++
		where += ` AND account_id = ANY($` + strconv.Itoa(argCount) + `)`
		args = append(args, accountIDs)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles` + where + ` ORDER BY plate_number`
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

	var result []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, v)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Vehicle, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vehicle{}, shared.ErrNotFound
		}
		return Vehicle{}, err
	}
	return v, nil
}

func (r *repository) Create(ctx context.Context, vehicle Vehicle) (Vehicle, error) {
	now := time.Now()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO vehicles (account_id, plate_number, make, model, year, status, daily_rate_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+vehicleColumns,
		vehicle.AccountID, vehicle.PlateNumber, vehicle.Make, vehicle.Model, vehicle.Year,
		vehicle.Status, vehicle.DailyRateCents, now)
	return scanVehicle(row)
}

func (r *repository) Update(ctx context.Context, vehicle Vehicle) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vehicles SET plate_number = $2, make = $3, model = $4, year = $5, status = $6, daily_rate_cents = $7, updated_at = $8
		WHERE id = $1`,
		vehicle.ID, vehicle.PlateNumber, vehicle.Make, vehicle.Model, vehicle.Year,
		vehicle.Status, vehicle.DailyRateCents, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&v.ID, &v.AccountID, &v.PlateNumber, &v.Make, &v.Model, &v.Year, &v.Status, &v.DailyRateCents, &createdAt, &updatedAt); err != nil {
		return Vehicle{}, err
	}
	if createdAt.Valid {
		v.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		v.UpdatedAt = updatedAt.Time
	}
	return v, nil
}
