package domain

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "PAID"
	PaymentPending  PaymentStatus = "PENDING"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentCanceled PaymentStatus = "CANCELED"
	PaymentExpired  PaymentStatus = "EXPIRED"
)

// NormalizeStatus maps the provider's raw status vocabulary onto the closed
// set this system recognizes. Unknown values normalize to FAILED, never to
// PAID.
func NormalizeStatus(raw string) PaymentStatus {
	switch raw {
	case "paid", "authorized":
		return PaymentPaid
	case "pending", "open":
		return PaymentPending
	case "canceled":
		return PaymentCanceled
	case "expired":
		return PaymentExpired
	default:
		return PaymentFailed
	}
}

// Payment is this system's view of a provider-owned payment. AmountCents is
// in minor units; the provider wire format carries a decimal string.
type Payment struct {
	ID          string
	AmountCents int64
	Currency    string
	Status      PaymentStatus
	Metadata    CheckoutMetadata
}

// CheckoutMetadata is the bag attached to a payment at creation time. It is
// the only channel carrying order-construction data between checkout and
// webhook delivery.
type CheckoutMetadata struct {
	Items      []CartItem       `json:"items,omitempty"`
	Customer   *CustomerDetails `json:"customer,omitempty"`
	Locale     string           `json:"locale,omitempty"`
	CustomerID string           `json:"customerId,omitempty"`
}

// LedgerEntry is the durable claim record for a payment. At most one entry
// per payment id can ever be inserted.
type LedgerEntry struct {
	PaymentID   string
	Status      PaymentStatus
	Processed   bool
	OrderNumber string
	ClaimedAt   time.Time
	AttemptAt   *time.Time
	ProcessedAt *time.Time
}
