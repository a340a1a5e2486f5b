// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// The pattern is always:
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
//
// Every write here is a single statement in autocommit mode, so "insert"
// and "persist-and-commit" are the same call: when CreateUser or CreateEvent
// returns nil the row is durable.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and implements both
// repository.UserRepository and repository.EventRepository.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/events.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
//
// An in-memory database lives inside one connection, so for ":memory:" the
// pool is capped at a single connection; otherwise a second pooled connection
// would see an empty database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a request is writing.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. evento.user_id relies on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn adds the foreign_keys pragma to file databases. PRAGMA foreign_keys is
// per connection, and the pool may open more connections after New returns.
func dsn(dbPath string) string {
	if dbPath == ":memory:" {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate brings any database to the current schema.
//
// The schema went through three steps: users and events started out linked by
// an evento_user join table, the join table was dropped, and finally events
// got a direct nullable user_id. Only the final shape is created here; the
// drop step exists so databases created by the first layout converge too.
//
// Every statement is idempotent, so migrate runs on every start.
func (db *DB) migrate() error {
	// Step 1: base tables. COLLATE NOCASE makes the UNIQUE index and the
	// lookups treat "User@Example.com" and "user@example.com" as one email.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS "user" (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			email    TEXT NOT NULL UNIQUE COLLATE NOCASE,
			roles    TEXT NOT NULL DEFAULT '[]',
			password TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS evento (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			title     TEXT NOT NULL,
			image     TEXT NOT NULL,
			text      TEXT NOT NULL,
			ubication TEXT NOT NULL,
			date      DATE NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating evento table: %w", err)
	}

	// Step 2: the many-to-many join table is obsolete.
	if _, err := db.conn.Exec(`DROP TABLE IF EXISTS evento_user`); err != nil {
		return fmt.Errorf("dropping evento_user: %w", err)
	}

	// Step 3: single nullable owner. Deleting a user keeps their events and
	// clears the reference.
	if err := db.addColumnIfNotExists("evento", "user_id",
		`INTEGER DEFAULT NULL REFERENCES "user"(id) ON DELETE SET NULL`); err != nil {
		return fmt.Errorf("adding user_id to evento: %w", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_evento_user_id ON evento(user_id)`)
	if err != nil {
		return fmt.Errorf("creating evento user_id index: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent — safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		if code&0xff == sqlite3.SQLITE_CONSTRAINT {
			return strings.Contains(sqliteErr.Error(), "UNIQUE")
		}
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
