package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the analysis history database.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the history database at dbPath, creating its
// directory, and applies pending migrations.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}
	// watch and history may share the file; WAL lets history read while a
	// run is being recorded.
	return open(dbPath, 0,
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	)
}

// OpenInMemory opens a migrated in-memory database for tests.
func OpenInMemory() (*DB, error) {
	// Each pooled connection to :memory: would see its own empty database.
	return open(":memory:", 1, "PRAGMA foreign_keys=ON")
}

func open(dsn string, maxConns int, pragmas ...string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dsn, err)
	}
	if maxConns > 0 {
		conn.SetMaxOpenConns(maxConns)
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
