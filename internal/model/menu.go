package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ScrapedAtLayout is the wire format of scraped_at in API responses.
const ScrapedAtLayout = "2006-01-02T15:04:05"

// PriceScale is the number of decimal places kept for stored prices.
const PriceScale = 2

// MenuItemCandidate is an unvalidated menu item submitted for ingestion.
type MenuItemCandidate struct {
	RestaurantName string
	SourceURL      string
	Name           string
	Description    *string
	Price          decimal.Decimal
	Currency       string
}

// Restaurant groups menu items scraped from the same source URL.
type Restaurant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SourceURL string `json:"source_url"`
}

// MenuItem is a persisted menu item.
type MenuItem struct {
	ID             string          `json:"id"`
	RestaurantID   string          `json:"restaurant_id"`
	RestaurantName string          `json:"restaurant_name"`
	SourceURL      string          `json:"source_url"`
	Name           string          `json:"name"`
	Description    *string         `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	ScrapedAt      time.Time       `json:"scraped_at"`
}

// NewMenuItem builds the stored form of an accepted candidate.
// RestaurantID is left for the store to resolve.
func NewMenuItem(id string, c MenuItemCandidate, scrapedAt time.Time) MenuItem {
	return MenuItem{
		ID:             id,
		RestaurantName: strings.TrimSpace(c.RestaurantName),
		SourceURL:      strings.TrimSpace(c.SourceURL),
		Name:           strings.TrimSpace(c.Name),
		Description:    c.Description,
		Price:          c.Price.Round(PriceScale),
		Currency:       strings.ToUpper(strings.TrimSpace(c.Currency)),
		ScrapedAt:      scrapedAt,
	}
}

// MenuItemResponse is the external representation returned by the query endpoint.
type MenuItemResponse struct {
	ID             string      `json:"id"`
	RestaurantName string      `json:"restaurant_name"`
	SourceURL      string      `json:"source_url"`
	Name           string      `json:"name"`
	Description    *string     `json:"description"`
	Price          json.Number `json:"price"`
	Currency       string      `json:"currency"`
	ScrapedAt      string      `json:"scraped_at"`
}

// Response converts a stored item into its API representation.
func (m MenuItem) Response() MenuItemResponse {
	return MenuItemResponse{
		ID:             m.ID,
		RestaurantName: m.RestaurantName,
		SourceURL:      m.SourceURL,
		Name:           m.Name,
		Description:    m.Description,
		Price:          json.Number(m.Price.StringFixed(PriceScale)),
		Currency:       m.Currency,
		ScrapedAt:      m.ScrapedAt.UTC().Format(ScrapedAtLayout),
	}
}

// ItemFilter selects menu items for the query endpoint.
// Restaurant is a case-insensitive substring of the restaurant name,
// SourceURL an exact source URL. Limit applies only when both are empty.
type ItemFilter struct {
	Restaurant string
	SourceURL  string
	Limit      int
}

// IsEmpty reports whether neither filter field is set.
func (f ItemFilter) IsEmpty() bool {
	return f.Restaurant == "" && f.SourceURL == ""
}

// Matches reports whether item satisfies the filter. An empty filter matches everything.
func (f ItemFilter) Matches(item MenuItem) bool {
	if f.IsEmpty() {
		return true
	}
	if f.Restaurant != "" && strings.Contains(strings.ToLower(item.RestaurantName), strings.ToLower(f.Restaurant)) {
		return true
	}
	return f.SourceURL != "" && item.SourceURL == f.SourceURL
}
