package accounts

import "time"

// Account is a rental client organization, the unit of tenancy. Users,
// vehicles, and payments all hang off an account, and assignment-based
// scoping is expressed in account ids.
type Account struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Account statuses.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)
