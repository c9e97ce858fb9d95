package service

import (
	"context"
	"sync"
	"time"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/commerce"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/payment"
)

// memLedger mirrors the Postgres ledger's semantics in memory: claim and
// lease are atomic under the mutex, so two goroutines hitting the same
// payment id see exactly one success per primitive.
type memLedger struct {
	mu      sync.Mutex
	entries map[string]*domain.LedgerEntry
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]*domain.LedgerEntry)}
}

func (l *memLedger) Claim(_ context.Context, paymentID string, status domain.PaymentStatus) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[paymentID]; exists {
		return false, nil
	}

	now := time.Now()
	l.entries[paymentID] = &domain.LedgerEntry{
		PaymentID: paymentID,
		Status:    status,
		ClaimedAt: now,
		AttemptAt: &now,
	}

	return true, nil
}

func (l *memLedger) Lease(_ context.Context, paymentID string, lease time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[paymentID]
	if !ok || entry.Processed {
		return false, nil
	}

	now := time.Now()
	if entry.AttemptAt != nil && now.Sub(*entry.AttemptAt) < lease {
		return false, nil
	}

	entry.AttemptAt = &now

	return true, nil
}

func (l *memLedger) Find(_ context.Context, paymentID string) (*domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[paymentID]
	if !ok {
		return nil, nil
	}

	copied := *entry

	return &copied, nil
}

func (l *memLedger) MarkProcessed(_ context.Context, paymentID, orderNumber string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.entries[paymentID]; ok {
		now := time.Now()
		entry.Processed = true
		entry.OrderNumber = orderNumber
		entry.ProcessedAt = &now
	}

	return nil
}

func (l *memLedger) FindUnprocessedBefore(_ context.Context, olderThan time.Duration, limit int) ([]domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)

	var entries []domain.LedgerEntry

	for _, entry := range l.entries {
		if !entry.Processed && entry.ClaimedAt.Before(cutoff) {
			entries = append(entries, *entry)
			if len(entries) == limit {
				break
			}
		}
	}

	return entries, nil
}

func (l *memLedger) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// fakeGateway serves canned payments keyed by id.
type fakeGateway struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
	getErr   error

	created   []payment.CreatePaymentRequest
	createID  string
	createURL string
	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		payments:  make(map[string]*domain.Payment),
		createID:  "tr_created",
		createURL: "https://pay.example.com/checkout/tr_created",
	}
}

func (g *fakeGateway) CreatePayment(_ context.Context, req payment.CreatePaymentRequest) (*payment.CreatedPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return nil, g.createErr
	}

	g.created = append(g.created, req)

	return &payment.CreatedPayment{ID: g.createID, CheckoutURL: g.createURL}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, paymentID string) (*domain.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.getErr != nil {
		return nil, g.getErr
	}

	p, ok := g.payments[paymentID]
	if !ok {
		return nil, domain.ErrProviderUnavailable
	}

	copied := *p

	return &copied, nil
}

// fakeBackend counts order creations and can fail a configurable number of
// times before succeeding. When entered and release are set, CreateOrder
// signals entered and blocks until release is closed, so tests can hold a
// delivery inside order creation while another races in.
type fakeBackend struct {
	mu          sync.Mutex
	calls       int
	failFirst   int
	failWith    error
	orderNumber string
	customerID  string
	findErr     error
	drafts      []domain.OrderDraft

	entered chan struct{}
	release chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{orderNumber: "1042"}
}

func (b *fakeBackend) CreateOrder(_ context.Context, draft domain.OrderDraft) (string, error) {
	b.mu.Lock()
	b.calls++
	failing := b.calls <= b.failFirst
	failWith := b.failWith
	b.mu.Unlock()

	if failing {
		return "", failWith
	}

	if b.entered != nil {
		b.entered <- struct{}{}
		<-b.release
	}

	b.mu.Lock()
	b.drafts = append(b.drafts, draft)
	b.mu.Unlock()

	return b.orderNumber, nil
}

func (b *fakeBackend) GetProduct(_ context.Context, _ string) (*commerce.Product, error) {
	return nil, commerce.ErrProductNotFound
}

func (b *fakeBackend) FindCustomer(_ context.Context, _ string) (string, error) {
	if b.findErr != nil {
		return "", b.findErr
	}
	return b.customerID, nil
}

func (b *fakeBackend) orderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.drafts)
}

// fakePricer resolves prices from a fixed table, ignoring client-asserted
// prices the same way the real catalog does.
type fakePricer struct {
	prices map[string]int64
	err    error
}

func (p *fakePricer) UnitPriceCents(_ context.Context, item domain.CartItem) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}

	if cents, ok := p.prices[item.ID]; ok {
		return cents, nil
	}

	return 0, domain.ErrPriceNotFound
}
