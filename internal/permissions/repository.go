package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vottery/role-service/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the permission catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const permissionColumns = `permission_id, permission_name, permission_category, description, resource_type, action_type, is_active, created_at`

// List returns permissions matching the filters, ordered by category then name.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE 1=1`
	var args []any
	if filters.Category != "" {
		args = append(args, filters.Category)
		query += fmt.Sprintf(" AND permission_category = $%d", len(args))
	}
	if filters.Resource != "" {
		args = append(args, filters.Resource)
		query += fmt.Sprintf(" AND resource_type = $%d", len(args))
	}
	if filters.Action != "" {
		args = append(args, filters.Action)
		query += fmt.Sprintf(" AND action_type = $%d", len(args))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	query += ` ORDER BY permission_category, permission_name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetByID fetches a permission by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE permission_id = $1`, id)
	return scanPermissionErr(row)
}

// GetByName fetches a permission by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE permission_name = $1`, name)
	return scanPermissionErr(row)
}

// Create inserts a new permission.
func (r *Repository) Create(ctx context.Context, p Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (permission_name, permission_category, description, resource_type, action_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+permissionColumns,
		p.Name, p.Category, p.Description, p.Resource, p.Action,
	)
	created, err := scanPermissionErr(row)
	if err != nil {
		return Permission{}, mapUniqueViolation(err)
	}
	return created, nil
}

// Update applies a partial update and returns the stored row.
func (r *Repository) Update(ctx context.Context, id int64, fields UpdateFields) (Permission, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if fields.Name != nil {
		add("permission_name", *fields.Name)
	}
	if fields.Category != nil {
		add("permission_category", *fields.Category)
	}
	if fields.Description != nil {
		add("description", *fields.Description)
	}
	if fields.Resource != nil {
		add("resource_type", *fields.Resource)
	}
	if fields.Action != nil {
		add("action_type", *fields.Action)
	}
	if fields.IsActive != nil {
		add("is_active", *fields.IsActive)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE permissions SET %s WHERE permission_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), permissionColumns)
	updated, err := scanPermissionErr(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Permission{}, mapUniqueViolation(err)
	}
	return updated, nil
}

// SoftDelete flags a permission inactive. Permissions are never hard-deleted
// because historical bindings must remain resolvable.
func (r *Repository) SoftDelete(ctx context.Context, id int64) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE permissions SET is_active = false
		WHERE permission_id = $1
		RETURNING `+permissionColumns, id)
	return scanPermissionErr(row)
}

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Resource, &p.Action, &p.IsActive, &p.CreatedAt)
	return p, err
}

func scanPermissionErr(row pgx.Row) (Permission, error) {
	p, err := scanPermission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", shared.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
