package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a row with the requested id does not exist.
var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrations embed.FS

type CatsDB struct {
	DB  *sql.DB
	Log *zerolog.Logger
}

// NewCatsDB opens the database and checks the connection.
func NewCatsDB(driver, source string, log *zerolog.Logger) (*CatsDB, error) {
	if source == "" {
		log.Error().Msg("database source is not set")
		return nil, fmt.Errorf("database source is not set")
	}
	if driver == "" {
		driver = "postgres"
	}

	// Open the database connection
	db, err := sql.Open(driver, source)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database connection")
		return nil, err
	}

	// Check we are actually connected
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Database connection failed during ping")
		db.Close()
		return nil, err
	}

	return &CatsDB{DB: db, Log: log}, nil
}

func (c *CatsDB) Close() error {
	if err := c.DB.Close(); err != nil {
		return err
	}
	c.Log.Info().Msg("database connection closed")
	return nil
}

// Ping reports whether the database is reachable.
func (c *CatsDB) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Migrate applies every pending goose migration.
func (c *CatsDB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("error setting migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, c.DB, "migrations"); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	c.Log.Info().Msg("Migrations applied successfully")
	return nil
}

func (c *CatsDB) execQuery(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (sql.Result, error) {
	if c.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return res, nil
}

// withTx runs fn in a transaction, committing when it succeeds and rolling back otherwise.
func (c *CatsDB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.Log.Error().Err(rbErr).Msg("error rolling back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// limitArg turns a non-positive limit into NULL, which Postgres treats as no limit.
func limitArg(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}
