package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres
)

// Open открывает пул соединений через database/sql поверх pgx.
func Open(connString string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS operator_journal (
	id             UUID PRIMARY KEY,
	trace_id       TEXT NOT NULL,
	operator_id    TEXT NOT NULL,
	action         TEXT NOT NULL,
	transaction_id BIGINT,
	details        JSONB,
	status         TEXT NOT NULL,
	error          TEXT,
	duration_ms    BIGINT NOT NULL DEFAULT 0,
	timestamp      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS operator_journal_ts_idx ON operator_journal (timestamp DESC);

CREATE TABLE IF NOT EXISTS operators (
	id            TEXT PRIMARY KEY,
	username      TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	scopes        TEXT[] NOT NULL DEFAULT '{}'
);`

// Migrate создает таблицы консоли, если их еще нет.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}
