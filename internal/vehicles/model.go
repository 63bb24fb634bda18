package vehicles

import "time"

// Vehicle is one rentable unit in an account's fleet.
type Vehicle struct {
	ID             int64     `json:"id"`
	AccountID      int64     `json:"account_id"`
	PlateNumber    string    `json:"plate_number"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	Status         string    `json:"status"`
	DailyRateCents int64     `json:"daily_rate_cents"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Vehicle statuses.
const (
	StatusAvailable   = "available"
	StatusRented      = "rented"
	StatusMaintenance = "maintenance"
)

func validStatus(status string) bool {
	switch status {
	case StatusAvailable, StatusRented, StatusMaintenance:
		return true
	}
	return false
}
