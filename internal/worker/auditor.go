package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/metrics"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/repo"
)

const scanLimit = 100

// StuckClaimAuditor periodically scans for ledger entries that were claimed
// but never marked processed. Those are payments where money moved and no
// order exists; once the provider stops redelivering, nothing else will
// surface them. The auditor is read-only: it reports, operators reconcile.
type StuckClaimAuditor struct {
	ledger     repo.LedgerRepo
	interval   time.Duration
	stuckAfter time.Duration
	logger     *slog.Logger
}

func NewStuckClaimAuditor(ledger repo.LedgerRepo, interval, stuckAfter time.Duration, logger *slog.Logger) *StuckClaimAuditor {
	return &StuckClaimAuditor{
		ledger:     ledger,
		interval:   interval,
		stuckAfter: stuckAfter,
		logger:     logger,
	}
}

func (a *StuckClaimAuditor) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("stuck-claim auditor started", slog.Duration("interval", a.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.scan(ctx); err != nil {
				a.logger.Error("stuck-claim scan failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (a *StuckClaimAuditor) scan(ctx context.Context) error {
	entries, err := a.ledger.FindUnprocessedBefore(ctx, a.stuckAfter, scanLimit)
	if err != nil {
		return err
	}

	metrics.StuckClaims.Set(float64(len(entries)))

	for _, entry := range entries {
		a.logger.Error("claimed payment without an order, manual reconciliation required",
			slog.String("payment_id", entry.PaymentID),
			slog.Time("claimed_at", entry.ClaimedAt),
			slog.Duration("age", time.Since(entry.ClaimedAt)))
	}

	return nil
}
