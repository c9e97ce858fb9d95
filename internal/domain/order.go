package domain

// CartItem is a single storefront cart line. UnitPriceCents is asserted by
// the client and is never used for the charge amount; checkout re-derives
// prices from the catalog.
type CartItem struct {
	ID             string `json:"id"`
	Slug           string `json:"slug,omitempty"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPrice"`
	Grind          string `json:"grind,omitempty"`
	Weight         string `json:"weight,omitempty"`
}

type CustomerDetails struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// OrderData is the validated result of decoding CheckoutMetadata during
// webhook processing. DecodeOrderData fails explicitly when items or
// customer are missing instead of letting half-empty metadata travel
// further.
type OrderData struct {
	Items    []CartItem
	Customer CustomerDetails
	Locale   string
}

// DecodeOrderData extracts the order-construction data out of a payment's
// metadata. Metadata is fixed at payment creation; a delivery that arrives
// without it will never gain it on retry.
func DecodeOrderData(m CheckoutMetadata) (*OrderData, error) {
	if len(m.Items) == 0 {
		return nil, ErrMetadataIncomplete("items")
	}

	if m.Customer == nil {
		return nil, ErrMetadataIncomplete("customer")
	}

	return &OrderData{
		Items:    m.Items,
		Customer: *m.Customer,
		Locale:   m.Locale,
	}, nil
}

// OrderDraft is everything the commerce backend needs to create a paid
// order. AmountCents is the provider-confirmed amount, not the cart's
// client-asserted total.
type OrderDraft struct {
	Customer    CustomerDetails
	Items       []CartItem
	PaymentID   string
	AmountCents int64
	Currency    string
	CustomerID  string
	Locale      string
}
