package storage

import (
	"context"
	"errors"

	"github.com/MikhailRaia/menu-scraper/internal/model"
)

// ErrStorageUnavailable is returned when the backing store cannot be reached.
var ErrStorageUnavailable = errors.New("storage unavailable")

// MenuStorage persists accepted menu items and their restaurants.
type MenuStorage interface {
	// SaveItems stores all candidates atomically: either every item is saved or none is.
	// Restaurants are resolved by source URL and created on first use.
	SaveItems(ctx context.Context, candidates []model.MenuItemCandidate) ([]model.MenuItem, error)

	// ListItems returns items matching filter, newest first.
	ListItems(ctx context.Context, filter model.ItemFilter) ([]model.MenuItem, error)

	Stats(ctx context.Context) (model.StorageStats, error)

	Ping(ctx context.Context) error
}
