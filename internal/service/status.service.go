package service

import (
	"context"
	"log/slog"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/payment"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/repo"
)

const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusFailed  = "failed"
	StatusError   = "error"
)

type StatusResult struct {
	Status      string `json:"status"`
	OrderNumber string `json:"orderNumber,omitempty"`
	ClearCart   bool   `json:"clearCart"`
}

// StatusService backs the return-flow page. It is strictly read-only: it
// never claims, never creates, so refreshing the return page any number of
// times cannot produce a duplicate order.
type StatusService interface {
	Check(ctx context.Context, paymentID string) StatusResult
}

type statusService struct {
	gateway payment.Gateway
	ledger  repo.LedgerRepo
	logger  *slog.Logger
}

func NewStatusService(gateway payment.Gateway, ledger repo.LedgerRepo, logger *slog.Logger) StatusService {
	return &statusService{gateway: gateway, ledger: ledger, logger: logger}
}

func (s *statusService) Check(ctx context.Context, paymentID string) StatusResult {
	if paymentID == "" {
		return StatusResult{Status: StatusError}
	}

	p, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		s.logger.Warn("status check failed",
			slog.String("payment_id", paymentID),
			slog.String("error", err.Error()))
		return StatusResult{Status: StatusError}
	}

	switch p.Status {
	case domain.PaymentPaid:
		result := StatusResult{Status: StatusPaid, ClearCart: true}

		// Best effort: the order number is only known once the reconciler
		// has finished; the paid verdict does not depend on it.
		if entry, err := s.ledger.Find(ctx, paymentID); err == nil && entry != nil && entry.Processed {
			result.OrderNumber = entry.OrderNumber
		}

		return result
	case domain.PaymentPending:
		return StatusResult{Status: StatusPending}
	default:
		return StatusResult{Status: StatusFailed}
	}
}
