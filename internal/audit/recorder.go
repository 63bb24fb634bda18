package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder appends entries to audit_logs. Writes are best effort: a failed
// audit insert is logged and swallowed so it can never roll back or block
// the operation being audited.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{pool: pool, logger: logger}
}

// Record persists the entry asynchronously on a detached context so the
// write outlives request cancellation.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.pool == nil {
		return
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		writeCtx, cancel := context.WithTimeout(detached, 5*time.Second)
		defer cancel()
		if err := r.write(writeCtx, entry); err != nil && r.logger != nil {
			r.logger.Warn("audit write failed",
				slog.String("action", entry.Action),
				slog.String("entity", entry.Entity),
				slog.Any("error", err))
		}
	}()
}

func (r *Recorder) write(ctx context.Context, entry Entry) error {
	oldJSON, err := json.Marshal(entry.OldValues)
	if err != nil {
		return err
	}
	newJSON, err := json.Marshal(entry.NewValues)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, impersonator_id, action, entity, entity_id, old_values, new_values, ip_address, user_agent, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ActorID, entry.ImpersonatorID, entry.Action, entry.Entity, entry.EntityID,
		oldJSON, newJSON, entry.IPAddress, entry.UserAgent, entry.At)
	return err
}
