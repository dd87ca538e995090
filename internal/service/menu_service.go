package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/menu-scraper/internal/middleware"
	"github.com/MikhailRaia/menu-scraper/internal/model"
	"github.com/MikhailRaia/menu-scraper/internal/storage"
	"github.com/MikhailRaia/menu-scraper/internal/validation"
)

// ErrPersistence is returned when accepted items could not be stored.
var ErrPersistence = errors.New("failed to persist menu items")

// MenuService validates incoming batches, stores accepted items and serves queries.
type MenuService struct {
	storage   storage.MenuStorage
	validator *validation.Validator
	listLimit int
	now       func() time.Time
}

// NewMenuService constructs a MenuService. listLimit caps unfiltered queries.
func NewMenuService(storage storage.MenuStorage, validator *validation.Validator, listLimit int) *MenuService {
	return &MenuService{
		storage:   storage,
		validator: validator,
		listLimit: listLimit,
		now:       time.Now,
	}
}

// IngestBatch decodes a raw JSON batch and saves it.
func (s *MenuService) IngestBatch(ctx context.Context, body []byte) (model.BatchResult, error) {
	candidates, err := s.validator.DecodeBatch(body)
	if err != nil {
		return model.BatchResult{}, err
	}
	return s.SaveBatch(ctx, candidates)
}

// SaveBatch validates candidates and persists the accepted ones in one step.
// Invalid candidates are dropped; if none is valid the batch fails with
// validation.ErrAllItemsInvalid and nothing is stored.
func (s *MenuService) SaveBatch(ctx context.Context, candidates []model.MenuItemCandidate) (model.BatchResult, error) {
	outcome, err := s.validator.ValidateBatch(candidates)
	for _, rejected := range outcome.Rejected {
		log.Debug().
			Int("index", rejected.Index).
			Err(rejected.Err).
			Msg("Menu item rejected")
	}
	if err != nil {
		return outcome.Result(), err
	}

	saved, err := s.storage.SaveItems(ctx, outcome.Accepted)
	if err != nil {
		return model.BatchResult{TotalRequested: outcome.Total}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	event := log.Info()
	if client, ok := middleware.GetClientFromContext(ctx); ok {
		event = event.Str("client", client)
	}
	event.
		Int("saved", len(saved)).
		Int("rejected", len(outcome.Rejected)).
		Int("total", outcome.Total).
		Msg("Batch processed")

	return model.BatchResult{
		SavedCount:     len(saved),
		TotalRequested: outcome.Total,
	}, nil
}

// ListItems returns stored items, newest first. An empty filter returns at most
// listLimit items; restaurant and sourceURL select items matching either one.
func (s *MenuService) ListItems(ctx context.Context, restaurant, sourceURL string) ([]model.MenuItem, error) {
	filter := model.ItemFilter{
		Restaurant: strings.TrimSpace(restaurant),
		SourceURL:  strings.TrimSpace(sourceURL),
		Limit:      s.listLimit,
	}

	items, err := s.storage.ListItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing menu items: %w", err)
	}
	return items, nil
}

// Health reports the service status. It never fails: storage problems are
// reported as a degraded status.
func (s *MenuService) Health(ctx context.Context) model.HealthReport {
	report := model.HealthReport{
		Status:    model.StatusUp,
		Timestamp: s.now().UTC().Format(model.HealthTimestampForm),
		Database:  model.DatabaseHealth{Status: model.StatusConnected},
	}

	stats, err := s.storage.Stats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Storage health check failed")
		report.Status = model.StatusDegraded
		report.Database = model.DatabaseHealth{
			Status: model.StatusDisconnected,
			Error:  err.Error(),
		}
		return report
	}

	report.Database.MenuItems = &stats.MenuItems
	report.Database.Restaurants = &stats.Restaurants
	return report
}

// Ping checks that the storage is reachable.
func (s *MenuService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}
