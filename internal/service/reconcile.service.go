package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/commerce"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/payment"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/repo"
)

// Outcome is the terminal state of one webhook delivery. Everything except
// OutcomeRetry is acknowledged to the provider; OutcomeRetry asks it to
// redeliver.
type Outcome string

const (
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeProviderError   Outcome = "provider_error"
	OutcomeNotPaid         Outcome = "not_paid"
	OutcomeLostRace        Outcome = "lost_race"
	OutcomeInFlight        Outcome = "in_flight"
	OutcomeMissingMetadata Outcome = "missing_metadata"
	OutcomeRejected        Outcome = "rejected"
	OutcomeOrderCreated    Outcome = "order_created"
	OutcomeRetry           Outcome = "retry"
)

// Retryable reports whether the provider should redeliver this notification.
func (o Outcome) Retryable() bool { return o == OutcomeRetry }

// ReconcileService converts a provider notification into a confirmed order
// exactly once. The notification body is never trusted: the payment status
// is always re-fetched live, and every path into order creation goes through
// one of the ledger's two atomic primitives, the insert claim for first
// deliveries or the in-flight lease for redeliveries.
type ReconcileService interface {
	Process(ctx context.Context, paymentID string) Outcome
}

type reconcileService struct {
	ledger     repo.LedgerRepo
	gateway    payment.Gateway
	backend    commerce.Client
	retryLease time.Duration
	logger     *slog.Logger
}

// NewReconcileService wires the reconciler. retryLease bounds how long a
// delivery holds the exclusive right to attempt order creation; it must stay
// below the provider's redelivery interval so a failed attempt is retryable
// by the next delivery.
func NewReconcileService(ledger repo.LedgerRepo, gateway payment.Gateway, backend commerce.Client, retryLease time.Duration, logger *slog.Logger) ReconcileService {
	return &reconcileService{
		ledger:     ledger,
		gateway:    gateway,
		backend:    backend,
		retryLease: retryLease,
		logger:     logger,
	}
}

func (s *reconcileService) Process(ctx context.Context, paymentID string) Outcome {
	logger := s.logger.With(
		slog.String("payment_id", paymentID),
		slog.String("delivery_id", uuid.NewString()),
	)

	entry, err := s.ledger.Find(ctx, paymentID)
	if err != nil {
		logger.Error("ledger lookup failed", slog.String("error", err.Error()))
		return OutcomeRetry
	}

	if entry != nil && entry.Processed {
		logger.Info("duplicate delivery, already processed")
		return OutcomeDuplicate
	}

	// Live status fetch. The provider redelivers on its own schedule, so a
	// failed fetch is acknowledged rather than retried from here.
	p, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		logger.Warn("live status fetch failed", slog.String("error", err.Error()))
		return OutcomeProviderError
	}

	if p.Status != domain.PaymentPaid {
		logger.Info("payment not paid yet", slog.String("status", string(p.Status)))
		return OutcomeNotPaid
	}

	if entry == nil {
		claimed, err := s.ledger.Claim(ctx, paymentID, p.Status)
		if err != nil {
			logger.Error("ledger claim failed", slog.String("error", err.Error()))
			return OutcomeRetry
		}

		if !claimed {
			logger.Info("lost claim race, another delivery is handling this payment")
			return OutcomeLostRace
		}
	} else {
		// A previous delivery claimed the payment but order creation never
		// completed. Only the delivery that wins the in-flight lease may
		// retry; concurrent redeliveries lose the lease while the holder is
		// still inside order creation and are acknowledged.
		leased, err := s.ledger.Lease(ctx, paymentID, s.retryLease)
		if err != nil {
			logger.Error("ledger lease failed", slog.String("error", err.Error()))
			return OutcomeRetry
		}

		if !leased {
			logger.Info("another delivery holds the in-flight lease for this payment")
			return OutcomeInFlight
		}
	}

	data, err := domain.DecodeOrderData(p.Metadata)
	if err != nil {
		// The metadata was fixed at payment creation; redelivery cannot fix
		// this. Log with enough context to reconcile manually.
		logger.Error("payment metadata unusable, order cannot be reconstructed",
			slog.String("error", err.Error()))
		return OutcomeMissingMetadata
	}

	orderNumber, err := s.backend.CreateOrder(ctx, domain.OrderDraft{
		Customer:    data.Customer,
		Items:       data.Items,
		PaymentID:   paymentID,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		CustomerID:  p.Metadata.CustomerID,
		Locale:      data.Locale,
	})

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrBackendRejected):
		logger.Error("commerce backend rejected order, manual reconciliation required",
			slog.String("error", err.Error()),
			slog.String("customer_email", data.Customer.Email),
			slog.Int("item_count", len(data.Items)),
			slog.Int64("amount_cents", p.AmountCents))
		return OutcomeRejected
	default:
		logger.Warn("order creation failed, requesting redelivery", slog.String("error", err.Error()))
		return OutcomeRetry
	}

	if err := s.ledger.MarkProcessed(ctx, paymentID, orderNumber); err != nil {
		// The order exists; asking for redelivery now would re-create it.
		// Acknowledge and let the stuck-claim auditor surface the entry.
		logger.Error("order created but ledger update failed",
			slog.String("order_number", orderNumber),
			slog.String("error", err.Error()))
		return OutcomeOrderCreated
	}

	logger.Info("order created", slog.String("order_number", orderNumber))

	return OutcomeOrderCreated
}
