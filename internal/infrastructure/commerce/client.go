package commerce

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
)

// Client wraps the commerce backend's REST API. The backend exposes no
// idempotency key support; exactly-once order creation is enforced upstream
// by the ledger claim.
type Client interface {
	// CreateOrder creates a paid order and returns the backend order number.
	CreateOrder(ctx context.Context, draft domain.OrderDraft) (string, error)
	// GetProduct resolves a product by id or slug.
	GetProduct(ctx context.Context, idOrSlug string) (*Product, error)
	// FindCustomer resolves a backend customer id by email, "" when unknown.
	FindCustomer(ctx context.Context, email string) (string, error)
}

type Product struct {
	ID         string
	Slug       string
	Name       string
	PriceCents int64
}

// ErrProductNotFound is distinct from backend unavailability so the catalog
// can decide whether a static fallback is worth trying.
var ErrProductNotFound = fmt.Errorf("product not found")

type client struct {
	rest *resty.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) Client {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout)

	return &client{rest: rest}
}

type wireOrderLine struct {
	ProductID string            `json:"product_id"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type wireOrder struct {
	Number string `json:"number"`
}

func (c *client) CreateOrder(ctx context.Context, draft domain.OrderDraft) (string, error) {
	lines := make([]wireOrderLine, 0, len(draft.Items))

	for _, item := range draft.Items {
		line := wireOrderLine{
			ProductID: item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
		}

		if item.Grind != "" || item.Weight != "" {
			line.Metadata = map[string]string{}
			if item.Grind != "" {
				line.Metadata["grind"] = item.Grind
			}
			if item.Weight != "" {
				line.Metadata["weight"] = item.Weight
			}
		}

		lines = append(lines, line)
	}

	body := map[string]any{
		"customer": map[string]string{
			"first_name":  draft.Customer.FirstName,
			"last_name":   draft.Customer.LastName,
			"email":       draft.Customer.Email,
			"phone":       draft.Customer.Phone,
			"street":      draft.Customer.Street,
			"postal_code": draft.Customer.PostalCode,
			"city":        draft.Customer.City,
			"country":     draft.Customer.Country,
		},
		"lines":    lines,
		"currency": draft.Currency,
		"total":    draft.AmountCents,
		"paid":     true,
		"locale":   draft.Locale,
		"metadata": map[string]string{"payment_id": draft.PaymentID},
	}

	if draft.CustomerID != "" {
		body["customer_id"] = draft.CustomerID
	}

	var order wireOrder

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&order).
		Post("/v1/orders")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	switch {
	case resp.StatusCode() >= 500:
		return "", fmt.Errorf("%w: backend returned %d", domain.ErrBackendUnavailable, resp.StatusCode())
	case resp.StatusCode() >= 400:
		return "", fmt.Errorf("%w: backend returned %d: %s", domain.ErrBackendRejected, resp.StatusCode(), resp.String())
	}

	return order.Number, nil
}

type wireProduct struct {
	ID    string  `json:"id"`
	Slug  string  `json:"slug"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (c *client) GetProduct(ctx context.Context, idOrSlug string) (*Product, error) {
	var wire wireProduct

	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&wire).
		Get("/v1/products/" + idOrSlug)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, ErrProductNotFound
	case resp.StatusCode() >= 500:
		return nil, fmt.Errorf("%w: backend returned %d", domain.ErrBackendUnavailable, resp.StatusCode())
	case resp.StatusCode() >= 400:
		return nil, fmt.Errorf("%w: backend returned %d", domain.ErrBackendRejected, resp.StatusCode())
	}

	return &Product{
		ID:         wire.ID,
		Slug:       wire.Slug,
		Name:       wire.Name,
		PriceCents: toCents(wire.Price),
	}, nil
}

type wireCustomer struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

func (c *client) FindCustomer(ctx context.Context, email string) (string, error) {
	var wire wireCustomer

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("email", email).
		SetResult(&wire).
		Get("/v1/customers")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("%w: backend returned %d", domain.ErrBackendUnavailable, resp.StatusCode())
	}

	if len(wire.Results) == 0 {
		return "", nil
	}

	return wire.Results[0].ID, nil
}

// toCents converts the backend's decimal price to minor units with half-up
// rounding.
func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
