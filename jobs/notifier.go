package jobs

import (
	"context"
	"log/slog"

	"github.com/rentora/rentora-admin/internal/impersonation"
	"github.com/rentora/rentora-admin/internal/observability"
)

// Notifier adapts the jobs client to the impersonation notifier contract.
// Enqueue failures are logged and dropped; alerts are best effort by design.
type Notifier struct {
	Client  *Client
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// SessionStarted enqueues an alert for a newly opened session.
func (n *Notifier) SessionStarted(ctx context.Context, session impersonation.Session) {
	n.Metrics.SessionStarted()
	n.enqueue(ctx, "impersonation.started", session, session.Reason)
}

// SessionEnded enqueues an alert for a completed or terminated session.
func (n *Notifier) SessionEnded(ctx context.Context, session impersonation.Session) {
	n.Metrics.SessionEnded(string(session.Status))
	n.enqueue(ctx, "impersonation."+string(session.Status), session, session.TerminationReason)
}

func (n *Notifier) enqueue(ctx context.Context, event string, session impersonation.Session, reason string) {
	if n == nil || n.Client == nil {
		return
	}
	_, err := n.Client.EnqueueSecurityAlert(ctx, SecurityAlertPayload{
		Event:          event,
		SessionID:      session.ID,
		ImpersonatorID: session.ImpersonatorID,
		ImpersonatedID: session.ImpersonatedID,
		Reason:         reason,
	})
	if err != nil && n.Logger != nil {
		n.Logger.Warn("enqueue security alert",
			slog.String("event", event),
			slog.String("session_id", session.ID),
			slog.Any("error", err))
	}
}
