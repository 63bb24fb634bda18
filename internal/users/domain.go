package users

import (
	"time"

	"github.com/rentora/rentora-admin/internal/authz"
)

// User is a platform account. AccountID is set for csm and user roles
// (the tenant they belong to); admins and superadmins are platform-level.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         authz.Role `json:"role"`
	AccountID    *int64     `json:"account_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
