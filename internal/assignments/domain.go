package assignments

import "time"

// Assignment binds a csm or user to one account they may access. An actor's
// effective scope is exactly the set of assignments referencing them.
type Assignment struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	ActorID   int64     `json:"actor_id"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
