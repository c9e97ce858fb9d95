package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/catalog"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/commerce"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/payment"
)

const (
	maxQuantity     = 99
	defaultLocale   = "en"
	defaultCurrency = "EUR"
)

var validate = validator.New()

type CheckoutService interface {
	// Initiate validates the cart, re-derives authoritative prices, creates
	// the payment with the provider and returns where to send the user.
	Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

type CheckoutRequest struct {
	Items    []domain.CartItem
	Customer domain.CustomerDetails
	Locale   string
}

type CheckoutResult struct {
	PaymentID   string
	CheckoutURL string
}

type checkoutService struct {
	pricer        catalog.Pricer
	gateway       payment.Gateway
	customers     commerce.Client
	storefrontURL string
	webhookURL    string
	logger        *slog.Logger
}

func NewCheckoutService(pricer catalog.Pricer, gateway payment.Gateway, customers commerce.Client, storefrontURL, webhookURL string, logger *slog.Logger) CheckoutService {
	return &checkoutService{
		pricer:        pricer,
		gateway:       gateway,
		customers:     customers,
		storefrontURL: strings.TrimRight(storefrontURL, "/"),
		webhookURL:    webhookURL,
		logger:        logger,
	}
}

func (s *checkoutService) Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := validateCustomer(req.Customer); err != nil {
		return nil, err
	}

	if err := validateCart(req.Items); err != nil {
		return nil, err
	}

	locale := req.Locale
	if locale == "" {
		locale = defaultLocale
	}

	totalCents, err := s.verifiedTotal(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	// The commerce customer id is resolved here, never taken from the
	// request. An unknown email or a backend outage degrades to a guest
	// order rather than failing the checkout.
	customerID, err := s.customers.FindCustomer(ctx, req.Customer.Email)
	if err != nil {
		s.logger.Warn("customer lookup failed, continuing as guest",
			slog.String("error", err.Error()))
		customerID = ""
	}

	// The metadata carries the original, unverified cart lines and customer
	// data so the reconciler can rebuild the order later. It is never used
	// to re-derive the charge amount.
	created, err := s.gateway.CreatePayment(ctx, payment.CreatePaymentRequest{
		AmountCents: totalCents,
		Currency:    defaultCurrency,
		Description: orderDescription(req.Items),
		RedirectURL: fmt.Sprintf("%s/%s/payment/return", s.storefrontURL, locale),
		WebhookURL:  s.webhookURL,
		Metadata: domain.CheckoutMetadata{
			Items:      req.Items,
			Customer:   &req.Customer,
			Locale:     locale,
			CustomerID: customerID,
		},
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{PaymentID: created.ID, CheckoutURL: created.CheckoutURL}, nil
}

// verifiedTotal re-derives every unit price from the catalog and sums them.
// The client-asserted prices on the cart lines play no part here.
func (s *checkoutService) verifiedTotal(ctx context.Context, items []domain.CartItem) (int64, error) {
	var total int64

	for _, item := range items {
		cents, err := s.pricer.UnitPriceCents(ctx, item)
		if err != nil {
			return 0, err
		}

		total += cents * int64(item.Quantity)
	}

	if total <= 0 {
		return 0, fmt.Errorf("%w: computed %d cents", domain.ErrInvalidTotal, total)
	}

	return total, nil
}

// validateCustomer checks fields in a fixed order and stops at the first
// failure so the reported field is deterministic.
func validateCustomer(c domain.CustomerDetails) error {
	checks := []struct {
		field string
		value string
	}{
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"email", c.Email},
		{"street", c.Street},
		{"postalCode", c.PostalCode},
		{"city", c.City},
		{"country", c.Country},
	}

	for _, check := range checks {
		if strings.TrimSpace(check.value) == "" {
			return domain.NewValidationError(check.field, "is required")
		}
	}

	if err := validate.Var(c.Email, "email"); err != nil {
		return domain.NewValidationError("email", "is not a valid email address")
	}

	return nil
}

func validateCart(items []domain.CartItem) error {
	if len(items) == 0 {
		return domain.NewValidationError("items", "cart is empty")
	}

	for i, item := range items {
		if item.ID == "" && item.Slug == "" && item.Name == "" {
			return domain.NewValidationError(fmt.Sprintf("items[%d]", i), "has no identifier")
		}

		if item.Quantity < 1 || item.Quantity > maxQuantity {
			return domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("must be between 1 and %d", maxQuantity))
		}
	}

	return nil
}

func orderDescription(items []domain.CartItem) string {
	var count int
	for _, item := range items {
		count += item.Quantity
	}
	return fmt.Sprintf("Caferico order (%d items)", count)
}
