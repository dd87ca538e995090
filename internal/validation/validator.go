// Package validation implements the acceptance contract of the menu-item
// batch ingestion endpoint.
//
// A request goes through two stages. DecodeBatch/CheckRequest reject requests
// that do not have the expected shape (ErrMalformedRequest). ValidateBatch then
// applies the per-item rules and accepts the batch as long as at least one
// candidate passes; failed candidates are dropped. A batch in which every
// candidate fails is rejected with ErrAllItemsInvalid.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/MikhailRaia/menu-scraper/internal/model"
)

// Bounds on the decimal representation of a price. Anything outside them is
// rejected before rounding or comparison, both of which rescale to a common
// exponent.
const (
	minPriceExponent = -20
	maxPriceExponent = 10
	maxPriceBits     = 128
)

// maxPrice is the largest price the stores can hold (NUMERIC(10,2)).
var maxPrice = decimal.New(9999999999, -model.PriceScale)

// Outcome is the result of validating a batch.
type Outcome struct {
	Accepted []model.MenuItemCandidate
	Rejected []*ItemError
	Total    int
}

// Result returns the aggregate counters reported to clients.
func (o Outcome) Result() model.BatchResult {
	return model.BatchResult{
		SavedCount:     len(o.Accepted),
		TotalRequested: o.Total,
	}
}

// Validator applies the request shape check and the per-item rules.
type Validator struct {
	currencies *CurrencySet
	shape      *validator.Validate
	maxItems   int
}

// New creates a Validator. maxItems <= 0 disables the batch size limit.
func New(currencies *CurrencySet, maxItems int) *Validator {
	shape := validator.New()
	shape.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		currencies: currencies,
		shape:      shape,
		maxItems:   maxItems,
	}
}

// DecodeBatch parses a JSON request body and returns its candidates.
func (v *Validator) DecodeBatch(body []byte) ([]model.MenuItemCandidate, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty request body", ErrMalformedRequest)
	}

	var req model.BatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedRequest, err)
	}

	return v.CheckRequest(&req)
}

// CheckRequest verifies that every required key is present and that the batch
// is neither empty nor larger than the configured limit.
func (v *Validator) CheckRequest(req *model.BatchRequest) ([]model.MenuItemCandidate, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrMalformedRequest)
	}

	if err := v.shape.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedRequest, describeShapeError(err))
	}

	if v.maxItems > 0 && len(req.Items) > v.maxItems {
		return nil, fmt.Errorf("%w: batch has %d items, at most %d allowed", ErrMalformedRequest, len(req.Items), v.maxItems)
	}

	candidates := make([]model.MenuItemCandidate, 0, len(req.Items))
	for i, item := range req.Items {
		if item.Price != nil && !priceRepresentable(*item.Price) {
			return nil, fmt.Errorf("%w: items[%d].price is out of range", ErrMalformedRequest, i)
		}
		candidates = append(candidates, item.Candidate())
	}

	return candidates, nil
}

// ValidateCandidate checks one candidate, stopping at the first violated rule.
func (v *Validator) ValidateCandidate(c model.MenuItemCandidate) error {
	if strings.TrimSpace(c.RestaurantName) == "" {
		return ErrRestaurantNameRequired
	}

	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}

	if !priceRepresentable(c.Price) {
		return ErrPriceOutOfRange
	}

	// Prices are stored with two decimal places, so 0.004 counts as zero.
	price := c.Price.Round(model.PriceScale)
	if !price.IsPositive() {
		return ErrPriceNotPositive
	}
	if price.GreaterThan(maxPrice) {
		return ErrPriceOutOfRange
	}

	currency := NormalizeCurrency(c.Currency)
	if !v.currencies.Contains(currency) {
		return fmt.Errorf("%w: %q", ErrCurrencyNotAllowed, currency)
	}

	if !isAbsoluteURL(c.SourceURL) {
		return ErrSourceURLInvalid
	}

	return nil
}

// ValidateBatch splits candidates into accepted and rejected ones.
// It returns ErrAllItemsInvalid when nothing was accepted.
func (v *Validator) ValidateBatch(candidates []model.MenuItemCandidate) (Outcome, error) {
	out := Outcome{Total: len(candidates)}
	if len(candidates) == 0 {
		return out, fmt.Errorf("%w: batch is empty", ErrMalformedRequest)
	}

	for i, c := range candidates {
		if err := v.ValidateCandidate(c); err != nil {
			out.Rejected = append(out.Rejected, &ItemError{Index: i, Err: err})
			continue
		}
		c.Currency = NormalizeCurrency(c.Currency)
		out.Accepted = append(out.Accepted, c)
	}

	if len(out.Accepted) == 0 {
		return out, fmt.Errorf("%w: %w", ErrAllItemsInvalid, out.Rejected[0])
	}

	return out, nil
}

func priceRepresentable(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < minPriceExponent || exp > maxPriceExponent {
		return false
	}
	return d.Coefficient().BitLen() <= maxPriceBits
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func describeShapeError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}

	fe := fieldErrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must not be empty"
	default:
		return fmt.Sprintf("%s failed on %q", field, fe.Tag())
	}
}
