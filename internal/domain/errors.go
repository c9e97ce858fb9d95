package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks client-fixable input problems. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrPriceNotFound means no authoritative price could be resolved for a
	// cart item. Fatal for the checkout; charging an unverified amount is
	// not an option.
	ErrPriceNotFound = errors.New("price not found")

	// ErrInvalidTotal means the verified order total came out non-positive.
	ErrInvalidTotal = errors.New("invalid order total")

	// ErrInvalidRequest marks a request the payment provider rejected as
	// malformed. Retrying cannot fix it.
	ErrInvalidRequest = errors.New("invalid provider request")

	// ErrProviderUnavailable marks transport failures or 5xx responses from
	// the payment provider.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrBackendUnavailable marks transport failures or 5xx responses from
	// the commerce backend. Retryable.
	ErrBackendUnavailable = errors.New("commerce backend unavailable")

	// ErrBackendRejected means the commerce backend validated and refused
	// the order payload. Terminal; requires operator intervention.
	ErrBackendRejected = errors.New("commerce backend rejected order")
)

// ValidationError reports the first missing or invalid checkout field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// MetadataError reports which part of the payment metadata is missing.
type MetadataError struct {
	Missing string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("payment metadata missing %s", e.Missing)
}

func ErrMetadataIncomplete(missing string) error {
	return &MetadataError{Missing: missing}
}
