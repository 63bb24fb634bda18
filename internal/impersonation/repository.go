package impersonation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentora/rentora-admin/internal/authz"
	"github.com/rentora/rentora-admin/internal/shared"
)

// Repository persists impersonation sessions.
//
// The impersonation_sessions table carries a partial unique index on
// (impersonator_id, impersonated_id) WHERE status = 'active', so two
// concurrent Create calls for the same pair cannot both succeed.
type Repository interface {
	Create(ctx context.Context, session Session) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	// List returns sessions newest first. impersonatorID zero means all.
	List(ctx context.Context, impersonatorID int64) ([]Session, error)
	// Finish transitions an active session to a final status. Returns
	// ErrConflictingTransition when the session exists but is no longer
	// active, ErrNotFound when it does not exist.
	Finish(ctx context.Context, id string, status Status, endedAt time.Time, terminatedBy *int64, terminationReason string) (Session, error)
	// ExpiredActive returns active sessions whose expiry has passed.
	ExpiredActive(ctx context.Context, now time.Time, limit int) ([]Session, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const sessionColumns = `id, impersonator_id, impersonator_role, impersonated_id, impersonated_role,
	reason, status, started_at, expires_at, ended_at, terminated_by, termination_reason`

func (r *repository) Create(ctx context.Context, session Session) (Session, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO impersonation_sessions
			(id, impersonator_id, impersonator_role, impersonated_id, impersonated_role, reason, status, started_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+sessionColumns,
		session.ID, session.ImpersonatorID, string(session.ImpersonatorRole),
		session.ImpersonatedID, string(session.ImpersonatedRole),
		session.Reason, string(StatusActive), session.StartedAt, session.ExpiresAt)
	created, err := scanSession(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Session{}, fmt.Errorf("active session already exists for this pair: %w", shared.ErrConflictingTransition)
		}
		return Session{}, err
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, id string) (Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM impersonation_sessions WHERE id = $1`, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, shared.ErrNotFound
		}
		return Session{}, err
	}
	return session, nil
}

func (r *repository) List(ctx context.Context, impersonatorID int64) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM impersonation_sessions`
	args := []interface{}{}
	if impersonatorID > 0 {
		query += ` WHERE impersonator_id = $1`
		args = append(args, impersonatorID)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Finish is a compare-and-swap on status so a finished session can never be
// finished again, regardless of interleaving.
func (r *repository) Finish(ctx context.Context, id string, status Status, endedAt time.Time, terminatedBy *int64, terminationReason string) (Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE impersonation_sessions
		SET status = $2, ended_at = $3, terminated_by = $4, termination_reason = $5
		WHERE id = $1 AND status = $6
		RETURNING `+sessionColumns,
		id, string(status), endedAt, terminatedBy, terminationReason, string(StatusActive))
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.Get(ctx, id); getErr == nil {
				return Session{}, shared.ErrConflictingTransition
			}
			return Session{}, shared.ErrNotFound
		}
		return Session{}, err
	}
	return session, nil
}

func (r *repository) ExpiredActive(ctx context.Context, now time.Time, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM impersonation_sessions
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at LIMIT $3`, string(StatusActive), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	var impersonatorRole, impersonatedRole, status string
	var startedAt, expiresAt, endedAt pgtype.Timestamptz
	var terminatedBy pgtype.Int8
	var terminationReason pgtype.Text
	err := row.Scan(&s.ID, &s.ImpersonatorID, &impersonatorRole, &s.ImpersonatedID, &impersonatedRole,
		&s.Reason, &status, &startedAt, &expiresAt, &endedAt, &terminatedBy, &terminationReason)
	if err != nil {
		return Session{}, err
	}
	s.ImpersonatorRole = authz.Role(impersonatorRole)
	s.ImpersonatedRole = authz.Role(impersonatedRole)
	s.Status = Status(status)
	if startedAt.Valid {
		s.StartedAt = startedAt.Time
	}
	if expiresAt.Valid {
		s.ExpiresAt = expiresAt.Time
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	if terminatedBy.Valid {
		id := terminatedBy.Int64
		s.TerminatedBy = &id
	}
	if terminationReason.Valid {
		s.TerminationReason = terminationReason.String
	}
	return s, nil
}
