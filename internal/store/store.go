package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// MemoryDSN opens a private in-memory projection.
const MemoryDSN = ":memory:"

// pragmas are applied to every connection before the schema.
// busy_timeout is in milliseconds.
var pragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// migration upgrades a database whose user_version is below version.
type migration struct {
	version int
	stmt    string
}

// migrations run in order after schema.sql. Appending one bumps the schema
// version stored in PRAGMA user_version.
var migrations = []migration{
	// List orders by (last_name, first_name).
	{1, `CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(last_name, first_name)`},
}

// Store is the SQLite projection repository.
//
// A Store holds a single connection: SQLite allows one writer, and an
// in-memory database exists only on the connection that created it.
type Store struct {
	db *sql.DB
}

// Open creates or opens the projection at path (a file path or MemoryDSN),
// applies pragmas and brings the schema up to date. Opening an existing
// database keeps its rows.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenFresh deletes the database file and its WAL/SHM siblings, then
// opens an empty projection at path.
func OpenFresh(path string) (*Store, error) {
	if path != MemoryDSN {
		for _, p := range []string{path, path + "-wal", path + "-shm"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reset %s: %w", p, err)
			}
		}
	}
	return Open(path)
}

// Close closes the database connection. Safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for tests and diagnostics.
func (s *Store) DB() *sql.DB {
	return s.db
}

func prepare(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(db)
}

func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
		current = m.version
	}
	return nil
}

// schemaVersion is the user_version a fully migrated database reports.
func schemaVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].version
}

// verifyPragma checks that a pragma reports the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
