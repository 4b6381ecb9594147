// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/vottery/role-service/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Policy violations (protected role, last active role) answer 403; duplicate
// state answers 409; anything unrecognized is a storage failure and answers
// a generic 500 with no internal detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrProtectedRole), errors.Is(err, shared.ErrLastActiveRole):
		Problem(w, http.StatusForbidden, "Policy Violation", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
	}
}
