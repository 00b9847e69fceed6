package app

import (
	"database/sql"
	"fmt"

	"github.com/guttosm/varpulse/config"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// InitPostgres opens a PostgreSQL pool from cfg.Postgres and pings it.
//
// Returns:
//   - *sql.DB: an open database connection pool (safe for concurrent use).
//   - error: if opening or pinging the database fails.
//
// Example usage:
//
//	db, err := app.InitPostgres(config.AppConfig)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
func InitPostgres(cfg config.Config) (*sql.DB, error) {
	// Initialize database handle (does not establish a real connection yet)
	db, err := sqlOpener("postgres", cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	// Verify connectivity by pinging the database
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// postgresOpener is an indirection used by the postgres channel backend; overridden in tests to avoid real connections.
var postgresOpener = InitPostgres
