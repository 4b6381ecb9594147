package shared

import "errors"

var (
	// ErrNotFound indicates the referenced role, permission or assignment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a request is missing required identifiers or fields.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrProtectedRole occurs when deleting an assignment of the baseline role.
	ErrProtectedRole = errors.New("baseline role assignment cannot be deleted")
	// ErrLastActiveRole occurs when deleting a user's only remaining active role.
	ErrLastActiveRole = errors.New("cannot delete the user's last active role")
)

// UserSafeMessage returns an error message suitable for responses. Storage
// failures collapse to a generic message so internals never leak to callers.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrProtectedRole),
		errors.Is(err, ErrLastActiveRole):
		return err.Error()
	default:
		return "internal error"
	}
}
