package rbac

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/vottery/role-service/internal/platform/httpx"
	"github.com/vottery/role-service/internal/shared"
)

// Resolver is the slice of the resolution service the gate needs.
type Resolver interface {
	UserRoles(ctx context.Context, userID int64) ([]ResolvedRole, error)
	UserPermissions(ctx context.Context, userID int64) ([]string, error)
}

// Middleware wires access checks for HTTP handlers. The acting user is taken
// from the X-User-ID header and stored on the request context as the actor.
type Middleware struct {
	Resolver Resolver
	Logger   *slog.Logger
}

// RequireAnyRole admits callers holding at least one of the named roles.
func (m Middleware) RequireAnyRole(names ...string) func(http.Handler) http.Handler {
	required := normalizeNames(names)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			userID, ok := m.callerID(w, r)
			if !ok {
				return
			}
			roles, err := m.Resolver.UserRoles(r.Context(), userID)
			if err != nil {
				m.logError("resolve roles", userID, err)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
				return
			}
			if len(roles) == 0 {
				httpx.Problem(w, http.StatusForbidden, "Access Denied", "no roles assigned")
				return
			}
			for _, role := range roles {
				if _, ok := required[strings.ToLower(role.RoleName)]; ok {
					next.ServeHTTP(w, withActor(r, userID))
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("role requirement not met",
					slog.Int64("user_id", userID),
					slog.Any("required_any", names))
			}
			httpx.Problem(w, http.StatusForbidden, "Access Denied", "insufficient role")
		})
	}
}

// RequireAllPermissions admits callers holding every named permission.
func (m Middleware) RequireAllPermissions(perms ...string) func(http.Handler) http.Handler {
	required := normalizeNames(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			userID, ok := m.callerID(w, r)
			if !ok {
				return
			}
			granted, err := m.Resolver.UserPermissions(r.Context(), userID)
			if err != nil {
				m.logError("resolve permissions", userID, err)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
				return
			}
			if len(granted) == 0 {
				httpx.Problem(w, http.StatusForbidden, "Access Denied", "no permissions assigned")
				return
			}
			grantedSet := make(map[string]struct{}, len(granted))
			for _, p := range granted {
				grantedSet[strings.ToLower(p)] = struct{}{}
			}
			for p := range required {
				if _, ok := grantedSet[p]; !ok {
					if m.Logger != nil {
						m.Logger.Warn("permission requirement not met",
							slog.Int64("user_id", userID),
							slog.String("missing", p))
					}
					httpx.Problem(w, http.StatusForbidden, "Access Denied", "insufficient permissions")
					return
				}
			}
			next.ServeHTTP(w, withActor(r, userID))
		})
	}
}

func (m Middleware) callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if raw == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Authentication Required", "X-User-ID header is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusUnauthorized, "Authentication Required", "X-User-ID must be a positive integer")
		return 0, false
	}
	return id, true
}

func (m Middleware) logError(action string, userID int64, err error) {
	if m.Logger != nil {
		m.Logger.Error(action, slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

func withActor(r *http.Request, userID int64) *http.Request {
	ctx := shared.ContextWithActor(r.Context(), &shared.Actor{UserID: userID})
	return r.WithContext(ctx)
}

func normalizeNames(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(strings.ToLower(n))
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}
