package permissions

import "time"

// Permission is a named capability grouped by category, resource and action.
// Once referenced by a binding it is only ever soft-deleted so historical
// grants stay resolvable.
type Permission struct {
	ID          int64     `json:"permission_id"`
	Name        string    `json:"permission_name"`
	Category    string    `json:"permission_category"`
	Description string    `json:"description"`
	Resource    string    `json:"resource_type"`
	Action      string    `json:"action_type"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListFilters narrows permission listings.
type ListFilters struct {
	Category string
	Resource string
	Action   string
	IsActive *bool
}

// UpdateFields carries the optional fields of a partial update. Nil means
// leave unchanged.
type UpdateFields struct {
	Name        *string
	Category    *string
	Description *string
	Resource    *string
	Action      *string
	IsActive    *bool
}
