package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads stored audit records.
type Repository interface {
	Window(ctx context.Context, filters Filters, limit, offset int) ([]Row, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Window uses a dynamic query because every filter is optional.
func (r *repository) Window(ctx context.Context, filters Filters, limit, offset int) ([]Row, error) {
	query := `SELECT id, actor_id, impersonator_id, action, entity, entity_id, old_values, new_values, ip_address, user_agent, occurred_at
		FROM audit_logs WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if !filters.From.IsZero() {
		argCount++
		query += ` AND occurred_at >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argCount++
		query += ` AND occurred_at <= $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
	}
	if filters.ActorID > 0 {
		argCount++
		query += ` AND actor_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.ActorID)
	}
	if filters.Entity != "" {
		argCount++
		query += ` AND entity = $` + strconv.Itoa(argCount)
		args = append(args, filters.Entity)
	}
	if filters.Action != "" {
		argCount++
		query += ` AND action = $` + strconv.Itoa(argCount)
		args = append(args, filters.Action)
	}

	query += ` ORDER BY occurred_at DESC`
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		var impersonator pgtype.Int8
		var oldJSON, newJSON []byte
		var ip, ua pgtype.Text
		var at pgtype.Timestamptz
		if err := rows.Scan(&row.ID, &row.ActorID, &impersonator, &row.Action, &row.Entity, &row.EntityID, &oldJSON, &newJSON, &ip, &ua, &at); err != nil {
			return nil, err
		}
		if impersonator.Valid {
			id := impersonator.Int64
			row.ImpersonatorID = &id
		}
		if len(oldJSON) > 0 {
			_ = json.Unmarshal(oldJSON, &row.OldValues)
		}
		if len(newJSON) > 0 {
			_ = json.Unmarshal(newJSON, &row.NewValues)
		}
		if ip.Valid {
			row.IPAddress = ip.String
		}
		if ua.Valid {
			row.UserAgent = ua.String
		}
		if at.Valid {
			row.At = at.Time
		} else {
			row.At = time.Time{}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
