// Package impersonation manages bounded-duration identity assumption:
// a higher-privileged actor acting as a lower-privileged one, with the true
// actor preserved in every token and audit record.
package impersonation

import (
	"time"

	"github.com/rentora/rentora-admin/internal/authz"
)

// Status is the lifecycle state of a session. Transitions only go
// active→completed (self-ended or expired) or active→terminated (forced by
// a superadmin); nothing leaves a final state.
type Status string

const (
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusTerminated Status = "terminated"
)

// Session is one impersonation grant.
type Session struct {
	ID                string     `json:"id"`
	ImpersonatorID    int64      `json:"impersonator_id"`
	ImpersonatorRole  authz.Role `json:"impersonator_role"`
	ImpersonatedID    int64      `json:"impersonated_id"`
	ImpersonatedRole  authz.Role `json:"impersonated_role"`
	Reason            string     `json:"reason"`
	Status            Status     `json:"status"`
	StartedAt         time.Time  `json:"started_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	TerminatedBy      *int64     `json:"terminated_by,omitempty"`
	TerminationReason string     `json:"termination_reason,omitempty"`
}

// Expired reports whether an active session has outlived its token window.
func (s Session) Expired(now time.Time) bool {
	return s.Status == StatusActive && now.After(s.ExpiresAt)
}
