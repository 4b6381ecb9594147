package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vottery/role-service/internal/platform/db"
	"github.com/vottery/role-service/internal/shared"
)

// ListPermissions returns the bindings of a role joined to active permissions.
func (r *Repository) ListPermissions(ctx context.Context, roleID int64) ([]RolePermission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.permission_id, p.permission_name, p.permission_category, p.description,
		       p.resource_type, p.action_type, rp.is_granted, rp.granted_at
		FROM role_permissions rp
		JOIN permissions p ON p.permission_id = rp.permission_id
		WHERE rp.role_id = $1 AND p.is_active = true
		ORDER BY p.permission_category, p.permission_name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []RolePermission
	for rows.Next() {
		var b RolePermission
		if err := rows.Scan(&b.PermissionID, &b.Name, &b.Category, &b.Description,
			&b.Resource, &b.Action, &b.IsGranted, &b.GrantedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

const grantQuery = `
	INSERT INTO role_permissions (role_id, permission_id, is_granted)
	VALUES ($1, $2, true)
	ON CONFLICT (role_id, permission_id)
	DO UPDATE SET is_granted = true, granted_at = now()`

// Grant upserts a single binding. Re-granting an existing pair refreshes the
// grant timestamp instead of erroring, so grants are idempotent.
func (r *Repository) Grant(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, grantQuery, roleID, permissionID)
	return mapForeignKeyViolation(err)
}

// Revoke hard-removes a binding pair.
func (r *Repository) Revoke(ctx context.Context, roleID, permissionID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
		roleID, permissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// BulkGrant upserts all pairs inside one transaction: either every requested
// permission ends up granted or none do.
func (r *Repository) BulkGrant(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, permissionID := range permissionIDs {
			if _, err := tx.Exec(ctx, grantQuery, roleID, permissionID); err != nil {
				return mapForeignKeyViolation(err)
			}
		}
		return nil
	})
}

// mapForeignKeyViolation turns a missing role or permission reference into
// ErrNotFound so callers see a 404 instead of a raw constraint error.
func mapForeignKeyViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return shared.ErrNotFound
	}
	return err
}
