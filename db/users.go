package db

import (
	"context"
	"fmt"

	"github.com/kittygram/kittygram-api/models"
	"github.com/lib/pq"
)

const userColumns = `SELECT u.id, u.username, u.first_name, u.last_name,
		COALESCE(array_agg(c.name ORDER BY c.id) FILTER (WHERE c.id IS NOT NULL), '{}')
	FROM users u LEFT JOIN cats c ON c.owner_id = u.id`

// EnsureUser returns the user with the given username, creating it on first sight.
// Non-empty names replace the stored ones.
func (c *CatsDB) EnsureUser(ctx context.Context, user models.User) (*models.User, error) {
	u := user
	err := c.DB.QueryRowContext(ctx, `
		INSERT INTO users (username, first_name, last_name, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE SET
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
			last_name = COALESCE(NULLIF(EXCLUDED.last_name, ''), users.last_name),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email)
		RETURNING id, first_name, last_name`,
		user.Username, user.FirstName, user.LastName, user.Email).Scan(&u.ID, &u.FirstName, &u.LastName)
	if err != nil {
		return nil, fmt.Errorf("error upserting user: %w", err)
	}
	return &u, nil
}

// ListUsers retrieves a page of users ordered by id. A non-positive limit returns every user.
func (c *CatsDB) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := c.DB.QueryContext(ctx,
		userColumns+` GROUP BY u.id ORDER BY u.id LIMIT $1 OFFSET $2`, limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("error retrieving users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, pq.Array(&u.Cats)); err != nil {
			return nil, fmt.Errorf("error scanning users: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// CountUsers returns the total number of users.
func (c *CatsDB) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return n, nil
}

// GetUser retrieves a single user with the names of their cats.
func (c *CatsDB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	rows, err := c.DB.QueryContext(ctx, userColumns+` WHERE u.id = $1 GROUP BY u.id`, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error retrieving user: %w", err)
		}
		return nil, ErrNotFound
	}

	var u models.User
	if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, pq.Array(&u.Cats)); err != nil {
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return &u, nil
}
