package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikhailRaia/menu-scraper/internal/generator"
	"github.com/MikhailRaia/menu-scraper/internal/model"
)

type Storage struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewStorage(ctx context.Context, dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is empty")
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	// Проверяем соединение
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	storage := &Storage{
		pool: pool,
		now:  time.Now,
	}

	// Создаем таблицы, если они не существуют
	if err := storage.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

func (s *Storage) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			source_url TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS menu_items (
			id UUID PRIMARY KEY,
			seq BIGSERIAL NOT NULL,
			restaurant_id UUID NOT NULL REFERENCES restaurants(id),
			name TEXT NOT NULL,
			description TEXT,
			price NUMERIC(10,2) NOT NULL CHECK (price > 0),
			currency VARCHAR(3) NOT NULL,
			scraped_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_restaurant_id ON menu_items(restaurant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_scraped_at ON menu_items(scraped_at DESC, seq DESC)`,
	}

	for _, q := range queries {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}

	return nil
}

// SaveItems stores the batch in one transaction.
func (s *Storage) SaveItems(ctx context.Context, candidates []model.MenuItemCandidate) ([]model.MenuItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	scrapedAt := s.now().UTC().Truncate(time.Microsecond)
	restaurants := make(map[string]string)

	items := make([]model.MenuItem, 0, len(candidates))
	batch := &pgx.Batch{}
	for _, c := range candidates {
		item := model.NewMenuItem(generator.NewID(), c, scrapedAt)

		restaurantID, ok := restaurants[item.SourceURL]
		if !ok {
			restaurantID, err = upsertRestaurant(ctx, tx, item.RestaurantName, item.SourceURL)
			if err != nil {
				return nil, err
			}
			restaurants[item.SourceURL] = restaurantID
		}
		item.RestaurantID = restaurantID

		batch.Queue(
			`INSERT INTO menu_items (id, restaurant_id, name, description, price, currency, scraped_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.RestaurantID, item.Name, item.Description, item.Price.StringFixed(model.PriceScale), item.Currency, item.ScrapedAt,
		)
		items = append(items, item)
	}

	results := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return nil, fmt.Errorf("error inserting menu item: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("error inserting menu items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return items, nil
}

// upsertRestaurant finds the restaurant by source URL, creating it if needed,
// and renames it when the scraped name changed.
func upsertRestaurant(ctx context.Context, tx pgx.Tx, name, sourceURL string) (string, error) {
	id, current, err := findRestaurant(ctx, tx, sourceURL)
	if errors.Is(err, pgx.ErrNoRows) {
		id, err = insertRestaurant(ctx, tx, name, sourceURL)
		if err == nil {
			return id, nil
		}
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
			return "", fmt.Errorf("error inserting restaurant: %w", err)
		}
		// Параллельный запрос успел создать ресторан
		id, current, err = findRestaurant(ctx, tx, sourceURL)
	}
	if err != nil {
		return "", fmt.Errorf("error looking up restaurant: %w", err)
	}

	if current != name {
		if _, err := tx.Exec(ctx, "UPDATE restaurants SET name = $1 WHERE id = $2", name, id); err != nil {
			return "", fmt.Errorf("error renaming restaurant: %w", err)
		}
	}

	return id, nil
}

func findRestaurant(ctx context.Context, tx pgx.Tx, sourceURL string) (string, string, error) {
	var id, name string
	err := tx.QueryRow(ctx, "SELECT id::text, name FROM restaurants WHERE source_url = $1", sourceURL).Scan(&id, &name)
	return id, name, err
}

// insertRestaurant runs inside a savepoint so that a unique violation
// does not abort the outer transaction.
func insertRestaurant(ctx context.Context, tx pgx.Tx, name, sourceURL string) (string, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer sp.Rollback(ctx)

	id := generator.NewID()
	if _, err := sp.Exec(ctx, "INSERT INTO restaurants (id, name, source_url) VALUES ($1, $2, $3)", id, name, sourceURL); err != nil {
		return "", err
	}

	if err := sp.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Storage) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.MenuItem, error) {
	query, args := buildListQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying menu items: %w", err)
	}
	defer rows.Close()

	items := make([]model.MenuItem, 0)
	for rows.Next() {
		var (
			item  model.MenuItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.RestaurantID, &item.RestaurantName, &item.SourceURL,
			&item.Name, &item.Description, &price, &item.Currency, &item.ScrapedAt); err != nil {
			return nil, fmt.Errorf("error scanning menu item: %w", err)
		}

		item.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("error parsing price %q: %w", price, err)
		}
		item.ScrapedAt = item.ScrapedAt.UTC()

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}

const listQuery = `SELECT m.id::text, r.id::text, r.name, r.source_url, m.name, m.description, m.price::text, m.currency, m.scraped_at
	FROM menu_items m
	JOIN restaurants r ON r.id = m.restaurant_id`

// buildListQuery returns the SQL and arguments for filter.
func buildListQuery(filter model.ItemFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Restaurant != "" {
		args = append(args, "%"+escapeLike(filter.Restaurant)+"%")
		conds = append(conds, fmt.Sprintf("r.name ILIKE $%d", len(args)))
	}
	if filter.SourceURL != "" {
		args = append(args, filter.SourceURL)
		conds = append(conds, fmt.Sprintf("r.source_url = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(listQuery)
	if len(conds) > 0 {
		b.WriteString("\n\tWHERE ")
		b.WriteString(strings.Join(conds, " OR "))
	}
	b.WriteString("\n\tORDER BY m.scraped_at DESC, m.seq DESC")

	if filter.IsEmpty() && filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, "\n\tLIMIT $%d", len(args))
	}

	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *Storage) Stats(ctx context.Context) (model.StorageStats, error) {
	var stats model.StorageStats
	err := s.pool.QueryRow(ctx,
		"SELECT (SELECT COUNT(*) FROM menu_items), (SELECT COUNT(*) FROM restaurants)",
	).Scan(&stats.MenuItems, &stats.Restaurants)
	if err != nil {
		return model.StorageStats{}, fmt.Errorf("error counting rows: %w", err)
	}
	return stats, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
