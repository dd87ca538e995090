package validation

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRequest is returned when the request does not have the expected
	// shape: unreadable JSON, missing keys, wrong types or an empty batch.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrAllItemsInvalid is returned when every candidate of a batch failed validation.
	ErrAllItemsInvalid = errors.New("all items failed validation")
)

// Per-item rule violations, checked in this order.
var (
	ErrRestaurantNameRequired = errors.New("restaurant name is required")
	ErrNameRequired           = errors.New("item name is required")
	ErrPriceNotPositive       = errors.New("price must be greater than zero")
	ErrPriceOutOfRange        = errors.New("price exceeds the maximum supported value")
	ErrCurrencyNotAllowed     = errors.New("currency is not allowed")
	ErrSourceURLInvalid       = errors.New("source url must be an absolute URL with scheme and host")
)

// ItemError ties a rule violation to the position of the candidate in its batch.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
