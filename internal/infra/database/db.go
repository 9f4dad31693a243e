package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// Dialect selects the SQL flavour the repositories speak.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var placeholderRe = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $N placeholders into the dialect's form.
// Queries must use each placeholder once, in order.
func (d Dialect) Rebind(query string) string {
	if d == DialectSQLite {
		return placeholderRe.ReplaceAllString(query, "?")
	}
	return query
}

// ParseDialect validates a DATABASE_DRIVER value.
func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(driver) {
	case DialectPostgres, DialectSQLite:
		return Dialect(driver), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q (use postgres or sqlite)", driver)
	}
}

// NewConnection opens a connection pool for the dialect and pings it.
// For SQLite the data source is a file path.
func NewConnection(dialect Dialect, dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if dialect == DialectSQLite {
		// One writer at a time keeps SQLite free of SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}
	} else {
		db.SetMaxOpenConns(defaultMaxOpenConns)
		db.SetMaxIdleConns(defaultMaxIdleConns)
		db.SetConnMaxLifetime(defaultConnMaxLifetime)
		db.SetConnMaxIdleTime(defaultConnMaxIdleTime)
	}

	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the tables the repositories need if they are missing.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	statements := postgresSchema
	if dialect == DialectSQLite {
		statements = sqliteSchema
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	return nil
}

// Timestamps are stored as unix seconds so both drivers compare them numerically.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS gift_cards (
		seq         BIGSERIAL PRIMARY KEY,
		id          TEXT    NOT NULL UNIQUE,
		owner_id    BIGINT  NOT NULL,
		store_name  TEXT    NOT NULL,
		amount      NUMERIC NOT NULL CHECK (amount > 0),
		expiry_date DATE    NOT NULL,
		created_at  BIGINT  NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS gift_cards_owner_expiry_idx ON gift_cards (owner_id, expiry_date, seq)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		id          TEXT    PRIMARY KEY,
		card_id     TEXT    NOT NULL,
		chat_id     BIGINT  NOT NULL,
		offset_days INTEGER NOT NULL,
		fire_at     BIGINT  NOT NULL,
		title       TEXT    NOT NULL,
		body        TEXT    NOT NULL,
		status      TEXT    NOT NULL,
		attempts    INTEGER NOT NULL DEFAULT 0,
		last_error  TEXT,
		sent_at     BIGINT,
		created_at  BIGINT  NOT NULL,
		updated_at  BIGINT  NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reminders_status_fire_at_idx ON reminders (status, fire_at)`,
	`CREATE TABLE IF NOT EXISTS notification_permissions (
		chat_id    BIGINT PRIMARY KEY,
		status     TEXT   NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS gift_cards (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT    NOT NULL UNIQUE,
		owner_id    INTEGER NOT NULL,
		store_name  TEXT    NOT NULL,
		amount      TEXT    NOT NULL,
		expiry_date TEXT    NOT NULL,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS gift_cards_owner_expiry_idx ON gift_cards (owner_id, expiry_date, seq)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		id          TEXT    PRIMARY KEY,
		card_id     TEXT    NOT NULL,
		chat_id     INTEGER NOT NULL,
		offset_days INTEGER NOT NULL,
		fire_at     INTEGER NOT NULL,
		title       TEXT    NOT NULL,
		body        TEXT    NOT NULL,
		status      TEXT    NOT NULL,
		attempts    INTEGER NOT NULL DEFAULT 0,
		last_error  TEXT,
		sent_at     INTEGER,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reminders_status_fire_at_idx ON reminders (status, fire_at)`,
	`CREATE TABLE IF NOT EXISTS notification_permissions (
		chat_id    INTEGER PRIMARY KEY,
		status     TEXT    NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
}
