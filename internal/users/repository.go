package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const searchLimit = 20

// Repository provides PostgreSQL backed directory lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Search matches the query against email, phone and name fields.
func (r *Repository) Search(ctx context.Context, query string) ([]User, error) {
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, user_email, user_phone, user_firstname, user_lastname, created_at
		FROM users
		WHERE user_email ILIKE $1
			OR user_phone ILIKE $1
			OR user_firstname ILIKE $1
			OR user_lastname ILIKE $1
		ORDER BY user_email
		LIMIT $2`, pattern, searchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Phone, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
