package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kittygram/kittygram-api/models"
)

// ListAchievements retrieves a page of achievements ordered by id.
func (c *CatsDB) ListAchievements(ctx context.Context, limit, offset int) ([]models.Achievement, error) {
	rows, err := c.DB.QueryContext(ctx,
		`SELECT id, name FROM achievements ORDER BY id LIMIT $1 OFFSET $2`, limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("error retrieving achievements: %w", err)
	}
	defer rows.Close()

	achievements := []models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("error scanning achievements: %w", err)
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating achievements: %w", err)
	}
	return achievements, nil
}

// CountAchievements returns the total number of achievements.
func (c *CatsDB) CountAchievements(ctx context.Context) (int, error) {
	var n int
	if err := c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM achievements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting achievements: %w", err)
	}
	return n, nil
}

func (c *CatsDB) GetAchievement(ctx context.Context, id int64) (*models.Achievement, error) {
	var a models.Achievement
	err := c.DB.QueryRowContext(ctx, `SELECT id, name FROM achievements WHERE id = $1`, id).Scan(&a.ID, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving achievement: %w", err)
	}
	return &a, nil
}

func (c *CatsDB) CreateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	created := *a
	err := c.DB.QueryRowContext(ctx,
		`INSERT INTO achievements (name) VALUES ($1) RETURNING id`, a.Name).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("error inserting achievement: %w", err)
	}
	return &created, nil
}

func (c *CatsDB) UpdateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	res, err := c.DB.ExecContext(ctx, `UPDATE achievements SET name = $1 WHERE id = $2`, a.Name, a.ID)
	if err != nil {
		return nil, fmt.Errorf("error updating achievement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	updated := *a
	return &updated, nil
}

func (c *CatsDB) DeleteAchievement(ctx context.Context, id int64) error {
	res, err := c.DB.ExecContext(ctx, `DELETE FROM achievements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting achievement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
