package users

import "time"

// User is a directory entry surfaced by the search endpoint.
type User struct {
	ID        int64     `json:"user_id"`
	Email     *string   `json:"user_email,omitempty"`
	Phone     *string   `json:"user_phone,omitempty"`
	FirstName *string   `json:"user_firstname,omitempty"`
	LastName  *string   `json:"user_lastname,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
