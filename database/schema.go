package database

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ApplySchema runs every bundled migration against conn in filename order.
// The statements are idempotent, so it is safe on an already migrated database.
func ApplySchema(conn *sqlx.DB) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if _, err := conn.Exec(string(stmt)); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
	}
	return nil
}

// OpenMemory returns a migrated in-memory SQLite database. It is pinned to a
// single connection because every new :memory: connection is a fresh database.
func OpenMemory() (*sqlx.DB, error) {
	conn, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := ApplySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
