// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler is
// needed. Connection settings are passed as _pragma DSN parameters so that
// every pooled connection gets them, not just the first one:
//
//	foreign_keys(1)    referential integrity and ON DELETE CASCADE/RESTRICT
//	busy_timeout(5000) writers wait for the lock instead of failing at once
//	journal_mode(WAL)  readers do not block the writer (file databases only)
//
// An in-memory database exists per connection, so ":memory:" is pinned to a
// single connection. Code in this package never issues a query while a
// *sql.Rows from the same pool is still open.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/foodgram/internal/repository"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/foodgram.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	memory := dbPath == ":memory:"

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id         TEXT PRIMARY KEY,
				email      TEXT NOT NULL UNIQUE COLLATE NOCASE,
				username   TEXT NOT NULL UNIQUE,
				first_name TEXT NOT NULL DEFAULT '',
				last_name  TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"ingredients", `
			CREATE TABLE IF NOT EXISTS ingredients (
				id               TEXT PRIMARY KEY,
				name             TEXT NOT NULL,
				measurement_unit TEXT NOT NULL,
				UNIQUE (name, measurement_unit)
			);
			CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients(name);`},
		{"tags", `
			CREATE TABLE IF NOT EXISTS tags (
				id    TEXT PRIMARY KEY,
				name  TEXT NOT NULL UNIQUE,
				slug  TEXT NOT NULL UNIQUE,
				color TEXT NOT NULL DEFAULT '#ffffff'
			);`},
		{"recipes", `
			CREATE TABLE IF NOT EXISTS recipes (
				id           TEXT PRIMARY KEY,
				author_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name         TEXT NOT NULL,
				text         TEXT NOT NULL,
				image        TEXT NOT NULL DEFAULT '',
				cooking_time INTEGER NOT NULL CHECK (cooking_time >= 1),
				published_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_recipes_published_at ON recipes(published_at);
			CREATE INDEX IF NOT EXISTS idx_recipes_author_id ON recipes(author_id);`},
		{"recipe_tags", `
			CREATE TABLE IF NOT EXISTS recipe_tags (
				recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				tag_id    TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (recipe_id, tag_id)
			);`},
		{"recipe_ingredients", `
			CREATE TABLE IF NOT EXISTS recipe_ingredients (
				recipe_id     TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				ingredient_id TEXT NOT NULL REFERENCES ingredients(id) ON DELETE RESTRICT,
				amount        INTEGER NOT NULL CHECK (amount >= 1),
				position      INTEGER NOT NULL,
				UNIQUE (recipe_id, ingredient_id)
			);`},
		{"favorites", `
			CREATE TABLE IF NOT EXISTS favorites (
				user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				UNIQUE (user_id, recipe_id)
			);`},
		{"shopping_cart", `
			CREATE TABLE IF NOT EXISTS shopping_cart (
				user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				UNIQUE (user_id, recipe_id)
			);`},
		{"subscriptions", `
			CREATE TABLE IF NOT EXISTS subscriptions (
				subscriber_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				author_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				UNIQUE (subscriber_id, author_id),
				CHECK (subscriber_id <> author_id)
			);`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction and commits when fn returns nil.
// Any error, including a panic in fn, rolls the transaction back.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// constraint classifies a write error by the SQLite constraint it violated.
type constraint int

const (
	constraintNone constraint = iota
	constraintUnique
	constraintForeignKey
	constraintCheck
)

// classify inspects err for a constraint violation. It prefers the extended
// result code and falls back to the message for drivers built without
// extended codes.
func classify(err error) constraint {
	if err == nil {
		return constraintNone
	}

	var se *moderncsqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return constraintUnique
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return constraintForeignKey
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return constraintCheck
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return constraintUnique
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return constraintForeignKey
	case strings.Contains(msg, "CHECK constraint failed"):
		return constraintCheck
	}
	return constraintNone
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func clampList(opts repository.ListOptions) (limit, offset int) {
	limit, offset = opts.Limit, opts.Offset
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

const (
	defaultLimit = 6
	maxLimit     = 100
)

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
