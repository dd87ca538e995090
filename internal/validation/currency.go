package validation

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/currency"
)

// noCurrency is the ISO 4217 code for "no currency involved".
const noCurrency = "XXX"

// CurrencySet is the set of currency codes accepted by the validator.
// A set built from an empty list accepts every ISO 4217 code.
type CurrencySet struct {
	codes map[string]struct{}
}

// NewCurrencySet builds a set from configured codes. Codes are normalised and
// must be known ISO 4217 currencies.
func NewCurrencySet(codes []string) (*CurrencySet, error) {
	set := &CurrencySet{}

	for _, code := range codes {
		normalized := NormalizeCurrency(code)
		if normalized == "" {
			continue
		}
		if !isISOCurrency(normalized) {
			return nil, fmt.Errorf("unknown ISO 4217 currency code %q", code)
		}
		if set.codes == nil {
			set.codes = make(map[string]struct{})
		}
		set.codes[normalized] = struct{}{}
	}

	return set, nil
}

// Contains reports whether an already normalised code belongs to the set.
func (s *CurrencySet) Contains(code string) bool {
	if s == nil || s.codes == nil {
		return isISOCurrency(code)
	}
	_, ok := s.codes[code]
	return ok
}

// Codes returns the configured codes in sorted order, or nil when every ISO code is allowed.
func (s *CurrencySet) Codes() []string {
	if s == nil || s.codes == nil {
		return nil
	}
	codes := make([]string, 0, len(s.codes))
	for code := range s.codes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func isISOCurrency(code string) bool {
	if len(code) != 3 || code == noCurrency {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}
