package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MikhailRaia/menu-scraper/internal/generator"
	"github.com/MikhailRaia/menu-scraper/internal/model"
)

// Storage implements in-memory MenuStorage for testing and development.
type Storage struct {
	// restaurants are keyed by source URL.
	restaurants map[string]*model.Restaurant
	items       []model.MenuItem
	now         func() time.Time
	mutex       sync.RWMutex
}

// NewStorage creates a new in-memory storage instance.
func NewStorage() *Storage {
	return &Storage{
		restaurants: make(map[string]*model.Restaurant),
		now:         time.Now,
	}
}

// SetClock replaces the time source used for scraped_at.
func (s *Storage) SetClock(now func() time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.now = now
}

// SaveItems stores all candidates under a single lock.
func (s *Storage) SaveItems(ctx context.Context, candidates []model.MenuItemCandidate) ([]model.MenuItem, error) {
	return s.SaveItemsFunc(ctx, candidates, nil)
}

// SaveItemsFunc builds stored items for candidates and hands them to persist
// before they become visible. If persist fails nothing is stored.
func (s *Storage) SaveItemsFunc(ctx context.Context, candidates []model.MenuItemCandidate, persist func([]model.MenuItem) error) ([]model.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	scrapedAt := s.now().UTC().Truncate(time.Microsecond)
	pending := make(map[string]string)

	items := make([]model.MenuItem, 0, len(candidates))
	for _, c := range candidates {
		item := model.NewMenuItem(generator.NewID(), c, scrapedAt)

		if r, ok := s.restaurants[item.SourceURL]; ok {
			item.RestaurantID = r.ID
		} else if id, ok := pending[item.SourceURL]; ok {
			item.RestaurantID = id
		} else {
			item.RestaurantID = generator.NewID()
			pending[item.SourceURL] = item.RestaurantID
		}

		items = append(items, item)
	}

	if persist != nil {
		if err := persist(items); err != nil {
			return nil, err
		}
	}

	s.putLocked(items)

	return items, nil
}

// Put loads already persisted items, e.g. when replaying a storage file.
// Restaurant names follow the latest item seen for each source URL.
func (s *Storage) Put(items ...model.MenuItem) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.putLocked(items)
}

func (s *Storage) putLocked(items []model.MenuItem) {
	for _, item := range items {
		r, ok := s.restaurants[item.SourceURL]
		if !ok {
			id := item.RestaurantID
			if id == "" {
				id = generator.NewID()
			}
			r = &model.Restaurant{ID: id, SourceURL: item.SourceURL}
			s.restaurants[item.SourceURL] = r
		}
		r.Name = item.RestaurantName

		item.RestaurantID = r.ID
		s.items = append(s.items, item)
	}
}

// ListItems returns items matching filter, newest first.
// Items report the current name of their restaurant.
func (s *Storage) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]model.MenuItem, 0)
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		if r, ok := s.restaurants[item.SourceURL]; ok {
			item.RestaurantName = r.Name
		}
		if filter.Matches(item) {
			result = append(result, item)
		}
	}

	// Walking backwards keeps later inserts first among equal timestamps.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ScrapedAt.After(result[j].ScrapedAt)
	})

	if filter.IsEmpty() && filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Stats returns the number of stored items and restaurants.
func (s *Storage) Stats(ctx context.Context) (model.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return model.StorageStats{}, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return model.StorageStats{
		MenuItems:   int64(len(s.items)),
		Restaurants: int64(len(s.restaurants)),
	}, nil
}

// Ping always succeeds for the in-memory store.
func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}
