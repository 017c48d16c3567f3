package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kittygram/kittygram-api/models"
	"github.com/lib/pq"
)

// catOrderColumns lists the fields cats may be ordered by.
var catOrderColumns = map[string]string{
	"name":       "c.name",
	"birth_year": "c.birth_year",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const catColumns = `SELECT c.id, c.name, c.color, c.birth_year, c.owner_id, u.username
	FROM cats c JOIN users u ON u.id = c.owner_id`

// ListCats retrieves the cats matching the filter, ordered as requested.
func (c *CatsDB) ListCats(ctx context.Context, filter models.CatFilter) ([]models.Cat, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Color != nil {
		where = append(where, "c.color = "+arg(*filter.Color))
	}
	if filter.BirthYear != nil {
		where = append(where, "c.birth_year = "+arg(*filter.BirthYear))
	}
	for _, term := range filter.Search {
		where = append(where, "c.name ILIKE '%' || "+arg(likeEscaper.Replace(term))+" || '%'")
	}

	query := catColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + catOrderBy(filter.Ordering)

	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error retrieving cats: %w", err)
	}
	defer rows.Close()

	cats := []models.Cat{}
	for rows.Next() {
		cat, err := scanCat(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cats: %w", err)
	}

	if err := c.attachAchievements(ctx, cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// catOrderBy builds the ORDER BY clause. Unknown fields are ignored and the id breaks ties.
func catOrderBy(ordering []string) string {
	var terms []string
	for _, field := range ordering {
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}
		if col, ok := catOrderColumns[field]; ok {
			terms = append(terms, col+" "+dir)
		}
	}
	return strings.Join(append(terms, "c.id ASC"), ", ")
}

// GetCat retrieves a single cat with its achievements.
func (c *CatsDB) GetCat(ctx context.Context, id int64) (*models.Cat, error) {
	row := c.DB.QueryRowContext(ctx, catColumns+" WHERE c.id = $1", id)

	cat, err := scanCat(row)
	if err != nil {
		return nil, err
	}

	cats := []models.Cat{*cat}
	if err := c.attachAchievements(ctx, cats); err != nil {
		return nil, err
	}
	return &cats[0], nil
}

// CreateCat inserts a cat owned by cat.OwnerID and links its achievements, creating any
// achievement that does not exist yet.
func (c *CatsDB) CreateCat(ctx context.Context, cat *models.Cat) (*models.Cat, error) {
	created := *cat

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO cats (name, color, birth_year, owner_id)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			cat.Name, cat.Color, cat.BirthYear, cat.OwnerID).Scan(&created.ID)
		if err != nil {
			return fmt.Errorf("error inserting cat: %w", err)
		}

		created.Achievements, err = c.linkAchievements(ctx, tx, created.ID, cat.Achievements)
		return err
	})
	if err != nil {
		return nil, err
	}

	created.Age = age(created.BirthYear)
	return &created, nil
}

// UpdateCat overwrites the cat's fields. When replaceAchievements is set the cat's
// achievement links are replaced by cat.Achievements.
func (c *CatsDB) UpdateCat(ctx context.Context, cat *models.Cat, replaceAchievements bool) (*models.Cat, error) {
	updated := *cat

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		res, err := c.execQuery(ctx, tx, `
			UPDATE cats SET name = $1, color = $2, birth_year = $3 WHERE id = $4`,
			cat.Name, cat.Color, cat.BirthYear, cat.ID)
		if err != nil {
			return fmt.Errorf("error updating cat: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}

		if !replaceAchievements {
			return nil
		}

		if _, err := c.execQuery(ctx, tx, `DELETE FROM achievement_cats WHERE cat_id = $1`, cat.ID); err != nil {
			return fmt.Errorf("error unlinking achievements: %w", err)
		}
		updated.Achievements, err = c.linkAchievements(ctx, tx, cat.ID, cat.Achievements)
		return err
	})
	if err != nil {
		return nil, err
	}

	updated.Age = age(updated.BirthYear)
	return &updated, nil
}

// DeleteCat deletes a cat and its achievement links.
func (c *CatsDB) DeleteCat(ctx context.Context, id int64) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		res, err := c.execQuery(ctx, tx, `DELETE FROM cats WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("error deleting cat: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// linkAchievements finds or creates each achievement by name and links it to the cat.
func (c *CatsDB) linkAchievements(ctx context.Context, tx *sql.Tx, catID int64, achievements []models.Achievement) ([]models.Achievement, error) {
	linked := make([]models.Achievement, 0, len(achievements))
	for _, a := range achievements {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM achievements WHERE name = $1 ORDER BY id LIMIT 1`, a.Name).Scan(&a.ID)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx,
				`INSERT INTO achievements (name) VALUES ($1) RETURNING id`, a.Name).Scan(&a.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("error resolving achievement %q: %w", a.Name, err)
		}

		if _, err := c.execQuery(ctx, tx,
			`INSERT INTO achievement_cats (achievement_id, cat_id) VALUES ($1, $2)`, a.ID, catID); err != nil {
			return nil, fmt.Errorf("error linking achievement %q: %w", a.Name, err)
		}
		linked = append(linked, a)
	}
	return linked, nil
}

// attachAchievements loads the achievements of every cat in one query.
func (c *CatsDB) attachAchievements(ctx context.Context, cats []models.Cat) error {
	if len(cats) == 0 {
		return nil
	}

	ids := make([]int64, len(cats))
	index := make(map[int64]int, len(cats))
	for i := range cats {
		ids[i] = cats[i].ID
		index[cats[i].ID] = i
		cats[i].Achievements = []models.Achievement{}
	}

	rows, err := c.DB.QueryContext(ctx, `
		SELECT ac.cat_id, a.id, a.name
		FROM achievement_cats ac JOIN achievements a ON a.id = ac.achievement_id
		WHERE ac.cat_id = ANY($1)
		ORDER BY ac.id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error retrieving cat achievements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var catID int64
		var a models.Achievement
		if err := rows.Scan(&catID, &a.ID, &a.Name); err != nil {
			return fmt.Errorf("error scanning cat achievements: %w", err)
		}
		i := index[catID]
		cats[i].Achievements = append(cats[i].Achievements, a)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCat(row scanner) (*models.Cat, error) {
	var cat models.Cat
	err := row.Scan(&cat.ID, &cat.Name, &cat.Color, &cat.BirthYear, &cat.OwnerID, &cat.Owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning cat: %w", err)
	}
	cat.Age = age(cat.BirthYear)
	return &cat, nil
}

func age(birthYear int) int {
	return time.Now().Year() - birthYear
}
