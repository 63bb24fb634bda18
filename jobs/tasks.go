package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/rentora/rentora-admin/internal/impersonation"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskImpersonationSweep finalizes expired-but-still-active sessions.
	TaskImpersonationSweep = "impersonation:sweep"
	// TaskSecurityAlert fans out notifications for session lifecycle events.
	TaskSecurityAlert = "security:alert"
)

// SecurityAlertPayload describes a session lifecycle event worth notifying on.
type SecurityAlertPayload struct {
	Event          string `json:"event"`
	SessionID      string `json:"session_id"`
	ImpersonatorID int64  `json:"impersonator_id"`
	ImpersonatedID int64  `json:"impersonated_id"`
	Reason         string `json:"reason"`
}

// NewSecurityAlertTask constructs an Asynq task.
func NewSecurityAlertTask(payload SecurityAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSecurityAlert, data), nil
}

// NewImpersonationSweepTask constructs the periodic sweep task.
func NewImpersonationSweepTask() *asynq.Task {
	return asynq.NewTask(TaskImpersonationSweep, nil)
}

// SweepHandler runs the expired-session sweep. The sweep is a safety net on
// top of lazy expiry in the validation path, so a missed run loses nothing.
type SweepHandler struct {
	Service *impersonation.Service
	Logger  *slog.Logger
}

// Handle processes TaskImpersonationSweep tasks.
func (h *SweepHandler) Handle(ctx context.Context, t *asynq.Task) error {
	finalized, err := h.Service.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if finalized > 0 && h.Logger != nil {
		h.Logger.Info("impersonation sweep", slog.Int("finalized", finalized))
	}
	return nil
}

// AlertHandler delivers security alerts.
type AlertHandler struct {
	Logger *slog.Logger
}

// Handle processes TaskSecurityAlert tasks.
func (h *AlertHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SecurityAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder delivery: the notification channel (email/webhook) plugs
	// in here.
	if h.Logger != nil {
		h.Logger.Info("security alert",
			slog.String("event", payload.Event),
			slog.String("session_id", payload.SessionID),
			slog.Int64("impersonator_id", payload.ImpersonatorID),
			slog.Int64("impersonated_id", payload.ImpersonatedID))
	}
	return nil
}
