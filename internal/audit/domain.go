package audit

import "time"

// Entry is one mutation record headed for the audit_logs table. When the
// acting identity was assumed through impersonation, ImpersonatorID points
// back at the true actor.
type Entry struct {
	ActorID        int64
	ImpersonatorID *int64
	Action         string
	Entity         string
	EntityID       string
	OldValues      map[string]any
	NewValues      map[string]any
	IPAddress      string
	UserAgent      string
	At             time.Time
}

// Row is a stored audit record as returned by the timeline API.
type Row struct {
	ID             int64          `json:"id"`
	ActorID        int64          `json:"actor_id"`
	ImpersonatorID *int64         `json:"impersonator_id,omitempty"`
	Action         string         `json:"action"`
	Entity         string         `json:"entity"`
	EntityID       string         `json:"entity_id"`
	OldValues      map[string]any `json:"old_values,omitempty"`
	NewValues      map[string]any `json:"new_values,omitempty"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	At             time.Time      `json:"at"`
}

// Filters narrow a timeline query.
type Filters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo describes timeline paging state.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}
