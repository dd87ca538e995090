package model

import "github.com/shopspring/decimal"

// BatchRequest представляет тело запроса на пакетное сохранение позиций меню
type BatchRequest struct {
	Items []*MenuItemRequest `json:"items" validate:"required,min=1,dive,required"`
}

// MenuItemRequest представляет одну позицию меню в том виде, в котором она пришла по сети.
// Pointer fields distinguish a missing key from an empty value.
type MenuItemRequest struct {
	RestaurantName *string          `json:"restaurant_name" validate:"required"`
	SourceURL      *string          `json:"source_url" validate:"required"`
	Name           *string          `json:"name" validate:"required"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price" validate:"required"`
	Currency       *string          `json:"currency" validate:"required"`
}

// Candidate converts a shape-checked request item into a MenuItemCandidate.
// Callers must validate the request shape first; nil fields become zero values.
func (r *MenuItemRequest) Candidate() MenuItemCandidate {
	c := MenuItemCandidate{
		Description: r.Description,
	}
	if r.RestaurantName != nil {
		c.RestaurantName = *r.RestaurantName
	}
	if r.SourceURL != nil {
		c.SourceURL = *r.SourceURL
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Price != nil {
		c.Price = *r.Price
	}
	if r.Currency != nil {
		c.Currency = *r.Currency
	}
	return c
}

// BatchResult is the aggregate outcome of a batch: how many candidates were
// persisted out of how many were submitted.
type BatchResult struct {
	SavedCount     int `json:"saved_count"`
	TotalRequested int `json:"total_requested"`
}

// BatchResponse представляет тело успешного ответа на пакетный запрос
type BatchResponse struct {
	Message        string `json:"message"`
	SavedCount     int    `json:"saved_count"`
	TotalRequested int    `json:"total_requested"`
}

// ErrorResponse is the JSON body of every non-2xx API answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
