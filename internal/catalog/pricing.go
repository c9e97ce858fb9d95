package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/infrastructure/commerce"
)

// Pricer resolves the authoritative unit price for a cart item. Client-
// asserted prices never reach the charge amount.
type Pricer interface {
	UnitPriceCents(ctx context.Context, item domain.CartItem) (int64, error)
}

type pricer struct {
	backend commerce.Client
	static  *StaticCatalog
	logger  *slog.Logger
}

func NewPricer(backend commerce.Client, static *StaticCatalog, logger *slog.Logger) Pricer {
	return &pricer{backend: backend, static: static, logger: logger}
}

// UnitPriceCents tries the commerce backend by id then slug, and falls back
// to the embedded static price list when the backend cannot resolve the
// item. A price found nowhere is fatal for the checkout.
func (p *pricer) UnitPriceCents(ctx context.Context, item domain.CartItem) (int64, error) {
	for _, key := range lookupKeys(item) {
		product, err := p.backend.GetProduct(ctx, key)
		if err == nil {
			return product.PriceCents, nil
		}

		if errors.Is(err, domain.ErrBackendUnavailable) {
			p.logger.Warn("catalog primary unreachable, trying static fallback",
				slog.String("key", key), slog.String("error", err.Error()))
			break
		}
		// not found under this key, try the next one
	}

	if cents, ok := p.static.Price(item); ok {
		return cents, nil
	}

	return 0, fmt.Errorf("%w: %s", domain.ErrPriceNotFound, itemLabel(item))
}

func lookupKeys(item domain.CartItem) []string {
	var keys []string
	if item.ID != "" {
		keys = append(keys, item.ID)
	}
	if item.Slug != "" && item.Slug != item.ID {
		keys = append(keys, item.Slug)
	}
	return keys
}

func itemLabel(item domain.CartItem) string {
	if item.Name != "" {
		return item.Name
	}
	if item.ID != "" {
		return item.ID
	}
	return item.Slug
}
