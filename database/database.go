// Package database opens the Postgres connection pool and owns the schema
// migrations.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}
