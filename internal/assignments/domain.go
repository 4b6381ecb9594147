package assignments

import "time"

// Assignment is one (user, role name) pair. At most one row exists per pair;
// assign/deactivate/reactivate mutate it in place and only an explicit delete
// removes it.
type Assignment struct {
	ID                 int64          `json:"assignment_id"`
	UserID             int64          `json:"user_id"`
	RoleName           string         `json:"role_name"`
	IsActive           bool           `json:"is_active"`
	AssignedAt         time.Time      `json:"assigned_at"`
	AssignedBy         *int64         `json:"assigned_by,omitempty"`
	Type               string         `json:"assignment_type"`
	Source             string         `json:"assignment_source"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	DeactivatedAt      *time.Time     `json:"deactivated_at,omitempty"`
	DeactivatedBy      *int64         `json:"deactivated_by,omitempty"`
	DeactivationReason *string        `json:"deactivation_reason,omitempty"`

	// Enrichment columns joined from the role catalog and user directory.
	RoleID             *int64  `json:"role_id,omitempty"`
	RoleType           *string `json:"role_type,omitempty"`
	RoleCategory       *string `json:"role_category,omitempty"`
	UserEmail          *string `json:"user_email,omitempty"`
	AssignedByEmail    *string `json:"assigned_by_email,omitempty"`
	DeactivatedByEmail *string `json:"deactivated_by_email,omitempty"`
}

// AssignOptions carries the mutable attributes written by an assign call.
type AssignOptions struct {
	AssignedBy *int64
	Type       string
	Source     string
	ExpiresAt  *time.Time
	Metadata   map[string]any
}

// ListFilters narrows assignment listings.
type ListFilters struct {
	UserID   *int64
	RoleName string
	IsActive *bool
	Type     string
	Source   string
	Limit    int
}

// HistoryFilters narrows a user's assignment history.
type HistoryFilters struct {
	IsActive *bool
	RoleName string
	Limit    int
}

// ExpiredAssignment identifies a row deactivated by the expiry sweep.
type ExpiredAssignment struct {
	ID       int64  `json:"assignment_id"`
	UserID   int64  `json:"user_id"`
	RoleName string `json:"role_name"`
}
