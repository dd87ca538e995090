package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/MikhailRaia/menu-scraper/internal/generator"
	"github.com/MikhailRaia/menu-scraper/internal/model"
)

const (
	restaurantsCollection = "restaurants"
	menuItemsCollection   = "menu_items"
	connectTimeout        = 10 * time.Second
)

type restaurantDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	SourceURL string    `bson:"source_url"`
	CreatedAt time.Time `bson:"created_at"`
}

// menuItemDoc is a stored menu item. Seq orders items saved within the same millisecond.
type menuItemDoc struct {
	ID           string               `bson:"_id"`
	Seq          primitive.ObjectID   `bson:"seq"`
	RestaurantID string               `bson:"restaurant_id"`
	Name         string               `bson:"name"`
	Description  *string              `bson:"description,omitempty"`
	Price        primitive.Decimal128 `bson:"price"`
	Currency     string               `bson:"currency"`
	ScrapedAt    time.Time            `bson:"scraped_at"`
}

type listedDoc struct {
	Item       menuItemDoc   `bson:",inline"`
	Restaurant restaurantDoc `bson:"restaurant"`
}

// Storage keeps restaurants and menu items in MongoDB.
// Batches are written in a multi-document transaction, so the server must run as a replica set.
type Storage struct {
	client      *mongo.Client
	restaurants *mongo.Collection
	items       *mongo.Collection
	now         func() time.Time
}

func NewStorage(ctx context.Context, uri, database string) (*Storage, error) {
	if uri == "" {
		return nil, errors.New("mongodb connection string is empty")
	}
	if database == "" {
		return nil, errors.New("mongodb database name is empty")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	db := client.Database(database)
	storage := &Storage{
		client:      client,
		restaurants: db.Collection(restaurantsCollection),
		items:       db.Collection(menuItemsCollection),
		now:         time.Now,
	}

	if err := storage.createIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return storage, nil
}

func (s *Storage) createIndexes(ctx context.Context) error {
	if _, err := s.restaurants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "source_url", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("error creating restaurants index: %w", err)
	}

	if _, err := s.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}}},
		{Keys: bson.D{{Key: "scraped_at", Value: -1}, {Key: "seq", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("error creating menu_items indexes: %w", err)
	}

	return nil
}

// SaveItems stores the batch in one transaction.
func (s *Storage) SaveItems(ctx context.Context, candidates []model.MenuItemCandidate) ([]model.MenuItem, error) {
	session, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("error starting session: %w", err)
	}
	defer session.EndSession(ctx)

	// BSON dates keep milliseconds only
	scrapedAt := s.now().UTC().Truncate(time.Millisecond)

	var items []model.MenuItem
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// The callback may be retried, so everything is rebuilt on each attempt.
		items = make([]model.MenuItem, 0, len(candidates))
		docs := make([]interface{}, 0, len(candidates))
		restaurants := make(map[string]string)

		for _, c := range candidates {
			item := model.NewMenuItem(generator.NewID(), c, scrapedAt)

			restaurantID, ok := restaurants[item.SourceURL]
			if !ok {
				var err error
				restaurantID, err = s.upsertRestaurant(sc, item.RestaurantName, item.SourceURL, scrapedAt)
				if err != nil {
					return nil, err
				}
				restaurants[item.SourceURL] = restaurantID
			}
			item.RestaurantID = restaurantID

			doc, err := newMenuItemDoc(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			items = append(items, item)
		}

		if _, err := s.items.InsertMany(sc, docs); err != nil {
			return nil, fmt.Errorf("error inserting menu items: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// upsertRestaurant finds the restaurant by source URL, creating it if needed,
// and sets the latest scraped name.
func (s *Storage) upsertRestaurant(ctx context.Context, name, sourceURL string, now time.Time) (string, error) {
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "name", Value: name}}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: generator.NewID()},
			{Key: "created_at", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc restaurantDoc
	err := s.restaurants.FindOneAndUpdate(ctx, bson.D{{Key: "source_url", Value: sourceURL}}, update, opts).Decode(&doc)
	if err != nil {
		return "", fmt.Errorf("error upserting restaurant: %w", err)
	}
	return doc.ID, nil
}

func newMenuItemDoc(item model.MenuItem) (menuItemDoc, error) {
	price, err := primitive.ParseDecimal128(item.Price.StringFixed(model.PriceScale))
	if err != nil {
		return menuItemDoc{}, fmt.Errorf("error encoding price %s: %w", item.Price, err)
	}

	return menuItemDoc{
		ID:           item.ID,
		Seq:          primitive.NewObjectID(),
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        price,
		Currency:     item.Currency,
		ScrapedAt:    item.ScrapedAt,
	}, nil
}

func (s *Storage) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.MenuItem, error) {
	cursor, err := s.items.Aggregate(ctx, buildListPipeline(filter))
	if err != nil {
		return nil, fmt.Errorf("error querying menu items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]model.MenuItem, 0)
	for cursor.Next(ctx) {
		var doc listedDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding menu item: %w", err)
		}

		price, err := decimal.NewFromString(doc.Item.Price.String())
		if err != nil {
			return nil, fmt.Errorf("error parsing price %q: %w", doc.Item.Price.String(), err)
		}

		items = append(items, model.MenuItem{
			ID:             doc.Item.ID,
			RestaurantID:   doc.Item.RestaurantID,
			RestaurantName: doc.Restaurant.Name,
			SourceURL:      doc.Restaurant.SourceURL,
			Name:           doc.Item.Name,
			Description:    doc.Item.Description,
			Price:          price,
			Currency:       doc.Item.Currency,
			ScrapedAt:      doc.Item.ScrapedAt.UTC(),
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}

// buildListPipeline joins items with their restaurant, applies filter and sorts newest first.
func buildListPipeline(filter model.ItemFilter) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: restaurantsCollection},
			{Key: "localField", Value: "restaurant_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "restaurant"},
		}}},
		{{Key: "$unwind", Value: "$restaurant"}},
	}

	var or bson.A
	if filter.Restaurant != "" {
		or = append(or, bson.D{{Key: "restaurant.name", Value: primitive.Regex{
			Pattern: regexp.QuoteMeta(filter.Restaurant),
			Options: "i",
		}}})
	}
	if filter.SourceURL != "" {
		or = append(or, bson.D{{Key: "restaurant.source_url", Value: filter.SourceURL}})
	}
	if len(or) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "$or", Value: or}}}})
	}

	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
		{Key: "scraped_at", Value: -1},
		{Key: "seq", Value: -1},
	}}})

	if filter.IsEmpty() && filter.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(filter.Limit)}})
	}

	return pipeline
}

func (s *Storage) Stats(ctx context.Context) (model.StorageStats, error) {
	items, err := s.items.CountDocuments(ctx, bson.D{})
	if err != nil {
		return model.StorageStats{}, fmt.Errorf("error counting menu items: %w", err)
	}
	restaurants, err := s.restaurants.CountDocuments(ctx, bson.D{})
	if err != nil {
		return model.StorageStats{}, fmt.Errorf("error counting restaurants: %w", err)
	}
	return model.StorageStats{MenuItems: items, Restaurants: restaurants}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
