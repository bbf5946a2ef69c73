// Package sqlite implements the repository interfaces on SQLite.
//
// The driver is modernc.org/sqlite, a pure-Go translation of SQLite: no
// CGo, no C toolchain, trivially cross-compiled. A single file on disk is
// all the infrastructure this service needs, and ":memory:" gives tests a
// fresh disposable database per case.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The per-entity repositories returned
// by Users, Goals, and Tasks all share it; each implements one of the
// interfaces in the repository package.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserRepo { return &UserRepo{conn: db.conn} }

// Goals returns the goal repository backed by this database.
func (db *DB) Goals() *GoalRepo { return &GoalRepo{conn: db.conn} }

// Tasks returns the task repository backed by this database.
func (db *DB) Tasks() *TaskRepo { return &TaskRepo{conn: db.conn} }

// New opens (or creates) the database at dbPath and runs migrations.
// Pass ":memory:" for an in-memory database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight. The engine's
	// concurrency model leans on the store's per-row write serialization,
	// so this matters even at small scale.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// SQLite ships with foreign keys off; the goal/task references need
	// them on.
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

// Close closes the connection pool. Callers should defer this right after
// New so the WAL is flushed on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start.
//
// The ON DELETE clauses are a backstop only: goal deletion is performed by
// the service layer, which collects the descendant subtree and the tasks
// attached to it explicitly before deleting anything.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			subject       TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			level         INTEGER NOT NULL DEFAULT 1,
			experience    INTEGER NOT NULL DEFAULT 0,
			current_hp    INTEGER,
			max_hp        INTEGER,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email) WHERE email != '';
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS goals (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			title          TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT '',
			owner_id       TEXT NOT NULL REFERENCES users(id),
			parent_goal_id INTEGER REFERENCES goals(id) ON DELETE CASCADE,
			due_date       DATETIME,
			max_hp         INTEGER NOT NULL,
			current_hp     INTEGER NOT NULL,
			defeated       INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_goals_owner_id ON goals(owner_id);
		CREATE INDEX IF NOT EXISTS idx_goals_parent_goal_id ON goals(parent_goal_id);
	`)
	if err != nil {
		return fmt.Errorf("creating goals table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			title           TEXT NOT NULL,
			completed       INTEGER NOT NULL DEFAULT 0,
			owner_id        TEXT NOT NULL REFERENCES users(id),
			goal_id         INTEGER REFERENCES goals(id) ON DELETE CASCADE,
			parent_task_id  INTEGER REFERENCES tasks(id) ON DELETE SET NULL,
			difficulty      TEXT NOT NULL DEFAULT '',
			recurrence_days INTEGER NOT NULL DEFAULT 0,
			last_completed  DATETIME,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_owner_id ON tasks(owner_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_goal_id ON tasks(goal_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tasks table: %w", err)
	}

	return nil
}

// placeholders returns "?, ?, ..., ?" for n parameters. Used by the bulk
// delete queries.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	s := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			s = append(s, ", "...)
		}
		s = append(s, '?')
	}
	return string(s)
}
