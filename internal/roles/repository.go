package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vottery/role-service/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the role catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `role_id, role_name, role_type, role_category, description, is_default,
	requires_subscription, requires_action_trigger, action_trigger, is_active, created_at, updated_at`

// List returns roles matching the filters, ordered by type then name.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE 1=1`
	var args []any
	if filters.Type != "" {
		args = append(args, filters.Type)
		query += fmt.Sprintf(" AND role_type = $%d", len(args))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		query += fmt.Sprintf(" AND role_category = $%d", len(args))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	query += ` ORDER BY role_type, role_name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetByID fetches a role by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE role_id = $1`, id)
	return scanRoleErr(row)
}

// GetByName fetches a role by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE role_name = $1`, name)
	return scanRoleErr(row)
}

// Create inserts a new role.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (role_name, role_type, role_category, description, is_default,
			requires_subscription, requires_action_trigger, action_trigger)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+roleColumns,
		role.Name, role.Type, role.Category, role.Description, role.IsDefault,
		role.RequiresSubscription, role.RequiresActionTrigger, role.ActionTrigger,
	)
	created, err := scanRoleErr(row)
	if err != nil {
		return Role{}, mapUniqueViolation(err)
	}
	return created, nil
}

// Update applies a COALESCE-style partial update and returns the stored row.
func (r *Repository) Update(ctx context.Context, id int64, fields UpdateFields) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE roles SET
			role_name = COALESCE($1, role_name),
			role_type = COALESCE($2, role_type),
			role_category = COALESCE($3, role_category),
			description = COALESCE($4, description),
			is_default = COALESCE($5, is_default),
			requires_subscription = COALESCE($6, requires_subscription),
			requires_action_trigger = COALESCE($7, requires_action_trigger),
			action_trigger = COALESCE($8, action_trigger),
			is_active = COALESCE($9, is_active),
			updated_at = now()
		WHERE role_id = $10
		RETURNING `+roleColumns,
		fields.Name, fields.Type, fields.Category, fields.Description, fields.IsDefault,
		fields.RequiresSubscription, fields.RequiresActionTrigger, fields.ActionTrigger,
		fields.IsActive, id,
	)
	updated, err := scanRoleErr(row)
	if err != nil {
		return Role{}, mapUniqueViolation(err)
	}
	return updated, nil
}

// Delete hard-removes a role from the catalog. The baseline-role protection
// applies to per-user assignments, not catalog rows, so no guard runs here.
func (r *Repository) Delete(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `DELETE FROM roles WHERE role_id = $1 RETURNING `+roleColumns, id)
	return scanRoleErr(row)
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(
		&role.ID, &role.Name, &role.Type, &role.Category, &role.Description,
		&role.IsDefault, &role.RequiresSubscription, &role.RequiresActionTrigger,
		&role.ActionTrigger, &role.IsActive, &role.CreatedAt, &role.UpdatedAt,
	)
	return role, err
}

func scanRoleErr(row pgx.Row) (Role, error) {
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", shared.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
