package payments

import "time"

// Payment is one settled or pending charge against an account. The admin
// API only reads payments; charging happens in the billing pipeline.
type Payment struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference"`
	OccurredAt  time.Time `json:"occurred_at"`
}
