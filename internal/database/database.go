package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS payment_ledger (
	payment_id   TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	processed    BOOLEAN NOT NULL DEFAULT FALSE,
	order_number TEXT,
	claimed_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	attempt_at   TIMESTAMPTZ,
	processed_at TIMESTAMPTZ
)`

// NewPostgres opens a pgx-backed connection pool. The primary key on
// payment_ledger is the uniqueness constraint the whole reconciliation
// design leans on, so the schema lives next to the pool constructor.
func NewPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates the ledger table if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		return fmt.Errorf("migrate payment_ledger: %w", err)
	}
	return nil
}

// Health pings the database with a short deadline.
func Health(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db down: %w", err)
	}
	return nil
}
