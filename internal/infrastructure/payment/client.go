package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
)

// Gateway is the payment provider surface this system consumes. GetPayment
// always hits the provider live: it is the sole source of truth for whether
// money actually moved.
type Gateway interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatedPayment, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
}

type CreatePaymentRequest struct {
	AmountCents int64
	Currency    string
	Description string
	RedirectURL string
	WebhookURL  string
	Metadata    domain.CheckoutMetadata
}

type CreatedPayment struct {
	ID          string
	CheckoutURL string
}

type gateway struct {
	client *resty.Client
}

func NewGateway(baseURL, apiKey string, timeout time.Duration) Gateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout)

	return &gateway{client: client}
}

type wireAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type wirePayment struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   wireAmount      `json:"amount"`
	Metadata json.RawMessage `json:"metadata"`
	Links    struct {
		Checkout struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
}

func (g *gateway) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatedPayment, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount %d", domain.ErrInvalidRequest, req.AmountCents)
	}

	body := map[string]any{
		"amount":      wireAmount{Currency: req.Currency, Value: formatCents(req.AmountCents)},
		"description": req.Description,
		"redirectUrl": req.RedirectURL,
		"webhookUrl":  req.WebhookURL,
		"metadata":    req.Metadata,
	}

	var created wirePayment

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&created).
		Post("/v2/payments")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	if err := classify(resp); err != nil {
		return nil, err
	}

	return &CreatedPayment{ID: created.ID, CheckoutURL: created.Links.Checkout.Href}, nil
}

func (g *gateway) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var wire wirePayment

	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&wire).
		Get("/v2/payments/" + paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	if err := classify(resp); err != nil {
		return nil, err
	}

	p := &domain.Payment{
		ID:          wire.ID,
		AmountCents: parseCents(wire.Amount.Value),
		Currency:    wire.Amount.Currency,
		Status:      domain.NormalizeStatus(wire.Status),
	}

	// Metadata is whatever checkout attached; a payment created elsewhere
	// may carry none, or something unparseable. Both decode to the zero bag
	// and fail later at the explicit metadata check.
	if len(wire.Metadata) > 0 {
		_ = json.Unmarshal(wire.Metadata, &p.Metadata)
	}

	return p, nil
}

func classify(resp *resty.Response) error {
	switch {
	case resp.StatusCode() >= 500:
		return fmt.Errorf("%w: provider returned %d", domain.ErrProviderUnavailable, resp.StatusCode())
	case resp.StatusCode() >= 400:
		return fmt.Errorf("%w: provider returned %d: %s", domain.ErrInvalidRequest, resp.StatusCode(), resp.String())
	}
	return nil
}

// formatCents renders minor units as the provider's decimal string, e.g.
// 1300 -> "13.00".
func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// parseCents is the inverse of formatCents. Malformed values parse to 0,
// which no caller treats as a confirmed amount.
func parseCents(value string) int64 {
	whole, frac, ok := strings.Cut(value, ".")
	if !ok {
		frac = "00"
	}

	euros, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0
	}

	if len(frac) != 2 {
		return 0
	}

	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0
	}

	return euros*100 + cents
}
