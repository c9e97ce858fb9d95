package catalog

import (
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
)

//go:embed prices.json
var staticPrices []byte

// StaticCatalog is the secondary price source, baked into the binary so it
// stays reachable when the commerce backend is not. It is a snapshot, not a
// live catalog; the backend wins whenever it answers.
type StaticCatalog struct {
	bySlug map[string]int64
}

type staticEntry struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	PriceCents int64  `json:"priceCents"`
}

func NewStaticCatalog() (*StaticCatalog, error) {
	var entries []staticEntry
	if err := json.Unmarshal(staticPrices, &entries); err != nil {
		return nil, fmt.Errorf("parse embedded price list: %w", err)
	}

	bySlug := make(map[string]int64, len(entries)*2)

	for _, e := range entries {
		if e.ID != "" {
			bySlug[e.ID] = e.PriceCents
		}
		if e.Slug != "" {
			bySlug[e.Slug] = e.PriceCents
		}
	}

	return &StaticCatalog{bySlug: bySlug}, nil
}

func (c *StaticCatalog) Price(item domain.CartItem) (int64, bool) {
	if cents, ok := c.bySlug[item.ID]; ok {
		return cents, true
	}
	if cents, ok := c.bySlug[item.Slug]; ok {
		return cents, true
	}
	return 0, false
}
