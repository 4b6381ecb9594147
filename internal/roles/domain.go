package roles

import "time"

// Role is a named grouping of permissions with assignment requirements.
type Role struct {
	ID                    int64      `json:"role_id"`
	Name                  string     `json:"role_name"`
	Type                  string     `json:"role_type"`
	Category              string     `json:"role_category"`
	Description           string     `json:"description"`
	IsDefault             bool       `json:"is_default"`
	RequiresSubscription  bool       `json:"requires_subscription"`
	RequiresActionTrigger bool       `json:"requires_action_trigger"`
	ActionTrigger         *string    `json:"action_trigger,omitempty"`
	IsActive              bool       `json:"is_active"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// RolePermission is one granted (or revoked) binding of a permission to a
// role, joined to the permission's catalog fields for listings.
type RolePermission struct {
	PermissionID int64     `json:"permission_id"`
	Name         string    `json:"permission_name"`
	Category     string    `json:"permission_category"`
	Description  string    `json:"description"`
	Resource     string    `json:"resource_type"`
	Action       string    `json:"action_type"`
	IsGranted    bool      `json:"is_granted"`
	GrantedAt    time.Time `json:"granted_at"`
}

// ListFilters narrows role listings.
type ListFilters struct {
	Type     string
	Category string
	IsActive *bool
}

// UpdateFields carries optional fields of a partial role update. Nil means
// leave unchanged.
type UpdateFields struct {
	Name                  *string
	Type                  *string
	Category              *string
	Description           *string
	IsDefault             *bool
	RequiresSubscription  *bool
	RequiresActionTrigger *bool
	ActionTrigger         *string
	IsActive              *bool
}
