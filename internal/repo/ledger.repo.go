package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
)

// LedgerRepo is the claim store for processed payments. Claim and Lease are
// the serialization points of the reconciliation flow: both must be backed by
// the storage layer's atomicity, never by a read-then-write check.
type LedgerRepo interface {
	// Claim inserts the entry for paymentID and stamps the in-flight marker.
	// It reports false when another delivery already holds the claim.
	Claim(ctx context.Context, paymentID string, status domain.PaymentStatus) (bool, error)
	// Lease re-acquires the in-flight marker on an existing unprocessed
	// entry. It reports true only when no other delivery stamped the marker
	// within the last lease window, so concurrent redeliveries of a claimed
	// payment resolve to exactly one order-creation attempt.
	Lease(ctx context.Context, paymentID string, lease time.Duration) (bool, error)
	Find(ctx context.Context, paymentID string) (*domain.LedgerEntry, error)
	MarkProcessed(ctx context.Context, paymentID, orderNumber string) error
	// FindUnprocessedBefore returns claimed entries whose order creation has
	// not been confirmed within olderThan. Used by the stuck-claim auditor.
	FindUnprocessedBefore(ctx context.Context, olderThan time.Duration, limit int) ([]domain.LedgerEntry, error)
}

type ledgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) LedgerRepo {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) Claim(ctx context.Context, paymentID string, status domain.PaymentStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_ledger (payment_id, status, attempt_at) VALUES ($1, $2, now())
		 ON CONFLICT (payment_id) DO NOTHING`,
		paymentID, status,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *ledgerRepo) Lease(ctx context.Context, paymentID string, lease time.Duration) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_ledger
		 SET attempt_at = now()
		 WHERE payment_id = $1 AND processed = FALSE
		   AND (attempt_at IS NULL OR attempt_at < now() - make_interval(secs => $2))`,
		paymentID, lease.Seconds(),
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *ledgerRepo) Find(ctx context.Context, paymentID string) (*domain.LedgerEntry, error) {
	var (
		entry       domain.LedgerEntry
		orderNumber sql.NullString
		attemptAt   sql.NullTime
		processedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT payment_id, status, processed, order_number, claimed_at, attempt_at, processed_at
		 FROM payment_ledger WHERE payment_id = $1`,
		paymentID,
	).Scan(&entry.PaymentID, &entry.Status, &entry.Processed, &orderNumber, &entry.ClaimedAt, &attemptAt, &processedAt)
	if err == sql.ErrNoRows {
		return nil, nil // not claimed yet
	}
	if err != nil {
		return nil, err
	}

	entry.OrderNumber = orderNumber.String
	if attemptAt.Valid {
		entry.AttemptAt = &attemptAt.Time
	}
	if processedAt.Valid {
		entry.ProcessedAt = &processedAt.Time
	}

	return &entry, nil
}

func (r *ledgerRepo) MarkProcessed(ctx context.Context, paymentID, orderNumber string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payment_ledger
		 SET processed = TRUE, order_number = $2, processed_at = now()
		 WHERE payment_id = $1`,
		paymentID, orderNumber,
	)
	return err
}

func (r *ledgerRepo) FindUnprocessedBefore(ctx context.Context, olderThan time.Duration, limit int) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payment_id, status, processed, order_number, claimed_at, attempt_at, processed_at
		 FROM payment_ledger
		 WHERE processed = FALSE AND claimed_at < $1
		 ORDER BY claimed_at
		 LIMIT $2`,
		time.Now().Add(-olderThan), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry

	for rows.Next() {
		var (
			entry       domain.LedgerEntry
			orderNumber sql.NullString
			attemptAt   sql.NullTime
			processedAt sql.NullTime
		)

		if err := rows.Scan(&entry.PaymentID, &entry.Status, &entry.Processed, &orderNumber, &entry.ClaimedAt, &attemptAt, &processedAt); err != nil {
			return nil, err
		}

		entry.OrderNumber = orderNumber.String
		if attemptAt.Valid {
			entry.AttemptAt = &attemptAt.Time
		}
		if processedAt.Valid {
			entry.ProcessedAt = &processedAt.Time
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
