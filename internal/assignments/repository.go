package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vottery/role-service/internal/platform/db"
	"github.com/vottery/role-service/internal/shared"
)

// Repository provides PostgreSQL backed persistence for role assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const assignmentColumns = `id, user_id, role_name, is_active, assigned_at, assigned_by,
	assignment_type, assignment_source, expires_at, metadata,
	deactivated_at, deactivated_by, deactivation_reason`

// Upsert creates or revives the (user, role name) row in a single statement.
// The conflict target is the pair's unique constraint, so concurrent writers
// racing on the same pair serialize on the row and neither errors; rows for
// the user's other roles are never touched.
func (r *Repository) Upsert(ctx context.Context, userID int64, roleName string, opts AssignOptions) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_role_assignments
			(user_id, role_name, is_active, assigned_by, assignment_type, assignment_source, expires_at, metadata)
		VALUES ($1, $2, true, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, role_name) DO UPDATE SET
			is_active = true,
			assigned_by = EXCLUDED.assigned_by,
			assignment_type = EXCLUDED.assignment_type,
			assignment_source = EXCLUDED.assignment_source,
			expires_at = EXCLUDED.expires_at,
			metadata = EXCLUDED.metadata,
			assigned_at = now(),
			deactivated_at = NULL,
			deactivated_by = NULL,
			deactivation_reason = NULL
		RETURNING `+assignmentColumns,
		userID, roleName, opts.AssignedBy, opts.Type, opts.Source, opts.ExpiresAt, opts.Metadata)
	return scanAssignment(row)
}

// Deactivate soft-removes an active assignment. A pair with no active row
// yields ErrNotFound rather than a silent success.
func (r *Repository) Deactivate(ctx context.Context, userID int64, roleName string, deactivatedBy *int64, reason string) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE user_role_assignments SET
			is_active = false,
			deactivated_at = now(),
			deactivated_by = $3,
			deactivation_reason = $4
		WHERE user_id = $1 AND role_name = $2 AND is_active = true
		RETURNING `+assignmentColumns,
		userID, roleName, deactivatedBy, reason)
	return scanAssignmentErr(row)
}

// Reactivate restores an inactive assignment. It requires an inactive row:
// reactivating an already-active pair is ErrNotFound, not a no-op.
func (r *Repository) Reactivate(ctx context.Context, userID int64, roleName string, reactivatedBy *int64) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE user_role_assignments SET
			is_active = true,
			assigned_by = $3,
			assigned_at = now(),
			deactivated_at = NULL,
			deactivated_by = NULL,
			deactivation_reason = NULL
		WHERE user_id = $1 AND role_name = $2 AND is_active = false
		RETURNING `+assignmentColumns,
		userID, roleName, reactivatedBy)
	return scanAssignmentErr(row)
}

// DeleteGuarded hard-removes a pair. The count of the user's other active
// roles is checked inside the same transaction as the delete, so a concurrent
// deactivation cannot slip a user down to zero active roles.
func (r *Repository) DeleteGuarded(ctx context.Context, userID int64, roleName string) (Assignment, error) {
	var result Assignment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var otherActive int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM user_role_assignments
			WHERE user_id = $1 AND is_active = true AND role_name <> $2`,
			userID, roleName).Scan(&otherActive); err != nil {
			return fmt.Errorf("assignments: count active roles: %w", err)
		}
		if otherActive == 0 {
			return shared.ErrLastActiveRole
		}
		row := tx.QueryRow(ctx, `
			DELETE FROM user_role_assignments
			WHERE user_id = $1 AND role_name = $2
			RETURNING `+assignmentColumns,
			userID, roleName)
		var err error
		result, err = scanAssignmentErr(row)
		return err
	})
	if err != nil {
		return Assignment{}, err
	}
	return result, nil
}

// ExpireDue deactivates every active row whose expiry has passed. Running it
// again immediately is a no-op because the matched rows are already inactive.
func (r *Repository) ExpireDue(ctx context.Context, now time.Time) ([]ExpiredAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE user_role_assignments SET
			is_active = false,
			deactivated_at = now(),
			deactivation_reason = 'automatic expiration'
		WHERE expires_at IS NOT NULL AND expires_at <= $1 AND is_active = true
		RETURNING id, user_id, role_name`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []ExpiredAssignment
	for rows.Next() {
		var e ExpiredAssignment
		if err := rows.Scan(&e.ID, &e.UserID, &e.RoleName); err != nil {
			return nil, err
		}
		expired = append(expired, e)
	}
	return expired, rows.Err()
}

// List returns assignments matching the filters, enriched with role catalog
// fields and user directory emails, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Assignment, error) {
	query := `
		SELECT ` + enrichedColumns("ur") + `
		FROM user_role_assignments ur
		LEFT JOIN roles r ON r.role_name = ur.role_name
		LEFT JOIN users u ON u.user_id = ur.user_id
		LEFT JOIN users assigner ON assigner.user_id = ur.assigned_by
		LEFT JOIN users deactivator ON deactivator.user_id = ur.deactivated_by
		WHERE 1=1`
	var args []any
	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		query += fmt.Sprintf(" AND ur.user_id = $%d", len(args))
	}
	if filters.RoleName != "" {
		args = append(args, filters.RoleName)
		query += fmt.Sprintf(" AND ur.role_name = $%d", len(args))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		query += fmt.Sprintf(" AND ur.is_active = $%d", len(args))
	}
	if filters.Type != "" {
		args = append(args, filters.Type)
		query += fmt.Sprintf(" AND ur.assignment_type = $%d", len(args))
	}
	if filters.Source != "" {
		args = append(args, filters.Source)
		query += fmt.Sprintf(" AND ur.assignment_source = $%d", len(args))
	}
	query += ` ORDER BY ur.assigned_at DESC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.queryEnriched(ctx, query, args...)
}

// History returns every assignment row for the user, including inactive ones.
func (r *Repository) History(ctx context.Context, userID int64, filters HistoryFilters) ([]Assignment, error) {
	query := `
		SELECT ` + enrichedColumns("ur") + `
		FROM user_role_assignments ur
		LEFT JOIN roles r ON r.role_name = ur.role_name
		LEFT JOIN users u ON u.user_id = ur.user_id
		LEFT JOIN users assigner ON assigner.user_id = ur.assigned_by
		LEFT JOIN users deactivator ON deactivator.user_id = ur.deactivated_by
		WHERE ur.user_id = $1`
	args := []any{userID}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		query += fmt.Sprintf(" AND ur.is_active = $%d", len(args))
	}
	if filters.RoleName != "" {
		args = append(args, filters.RoleName)
		query += fmt.Sprintf(" AND ur.role_name = $%d", len(args))
	}
	query += ` ORDER BY ur.assigned_at DESC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.queryEnriched(ctx, query, args...)
}

// ActiveRoleNames returns the user's current active role names, sorted.
func (r *Repository) ActiveRoleNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT role_name FROM user_role_assignments
		WHERE user_id = $1 AND is_active = true
		ORDER BY role_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func enrichedColumns(alias string) string {
	return alias + `.id, ` + alias + `.user_id, ` + alias + `.role_name, ` + alias + `.is_active,
		` + alias + `.assigned_at, ` + alias + `.assigned_by, ` + alias + `.assignment_type,
		` + alias + `.assignment_source, ` + alias + `.expires_at, ` + alias + `.metadata,
		` + alias + `.deactivated_at, ` + alias + `.deactivated_by, ` + alias + `.deactivation_reason,
		r.role_id, r.role_type, r.role_category,
		u.user_email, assigner.user_email, deactivator.user_email`
}

func (r *Repository) queryEnriched(ctx context.Context, query string, args ...any) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.RoleName, &a.IsActive,
			&a.AssignedAt, &a.AssignedBy, &a.Type,
			&a.Source, &a.ExpiresAt, &a.Metadata,
			&a.DeactivatedAt, &a.DeactivatedBy, &a.DeactivationReason,
			&a.RoleID, &a.RoleType, &a.RoleCategory,
			&a.UserEmail, &a.AssignedByEmail, &a.DeactivatedByEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(
		&a.ID, &a.UserID, &a.RoleName, &a.IsActive,
		&a.AssignedAt, &a.AssignedBy, &a.Type,
		&a.Source, &a.ExpiresAt, &a.Metadata,
		&a.DeactivatedAt, &a.DeactivatedBy, &a.DeactivationReason,
	)
	return a, err
}

func scanAssignmentErr(row pgx.Row) (Assignment, error) {
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, shared.ErrNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}
