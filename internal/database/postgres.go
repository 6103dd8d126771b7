package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgresConnection opens and verifies a Postgres connection pool
func NewPostgresConnection(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the apartments document table if it does not exist.
// Each apartment is one versioned JSONB document.
func Migrate(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS apartments (
			id      TEXT PRIMARY KEY,
			version BIGINT NOT NULL,
			doc     JSONB  NOT NULL
		);
		CREATE INDEX IF NOT EXISTS apartments_owner_idx
			ON apartments ((doc->>'owner_id'));
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
