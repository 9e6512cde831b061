/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Package mongo implements the serving store against MongoDB. It is the
// default backend and covers both the publish sink and the analytics
// query surface.
package mongo

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clansou/medallion/config"
	mederrors "github.com/clansou/medallion/errors"
	"github.com/clansou/medallion/storagemodels"
)

// refreshInfoID is the fixed document id of the refresh metadata record.
const refreshInfoID = "refresh_info"

// Store is a MongoDB-backed serving store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	clients  *mongo.Collection
	products *mongo.Collection
	monthly  *mongo.Collection
	metadata *mongo.Collection
}

// Connect dials MongoDB and returns a Store bound to the analytics database.
func Connect(ctx context.Context, cfg config.Mongo) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI()))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Store{
		client:   client,
		db:       db,
		clients:  db.Collection(config.CollectionClients),
		products: db.Collection(config.CollectionProducts),
		monthly:  db.Collection(config.CollectionMonthlySales),
		metadata: db.Collection(config.CollectionMetadata),
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return mederrors.NewBackendUnavailableError("mongo", err)
	}
	return nil
}

// --- Sink ---

// ReplaceClients replaces the clients collection and rebuilds its indexes.
func (s *Store) ReplaceClients(ctx context.Context, records []storagemodels.ClientSummary) (storagemodels.CollectionLoad, error) {
	return replaceAll(ctx, s.clients, records, []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "country", Value: 1}}},
		{Keys: bson.D{{Key: "total_spent", Value: -1}}},
	})
}

// ReplaceProducts replaces the products collection and rebuilds its indexes.
func (s *Store) ReplaceProducts(ctx context.Context, records []storagemodels.ProductStats) (storagemodels.CollectionLoad, error) {
	return replaceAll(ctx, s.products, records, []mongo.IndexModel{
		{Keys: bson.D{{Key: "product", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "revenue", Value: -1}}},
	})
}

// ReplaceMonthlySales replaces the monthly sales collection.
func (s *Store) ReplaceMonthlySales(ctx context.Context, records []storagemodels.MonthlySales) (storagemodels.CollectionLoad, error) {
	return replaceAll(ctx, s.monthly, records, []mongo.IndexModel{
		{Keys: bson.D{{Key: "month", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
}

// PutRefreshMetadata upserts the refresh record under its fixed id.
func (s *Store) PutRefreshMetadata(ctx context.Context, meta storagemodels.RefreshMetadata) error {
	_, err := s.metadata.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: refreshInfoID}},
		bson.D{{Key: "$set", Value: meta}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert refresh metadata: %w", err)
	}
	return nil
}

// replaceAll drops the previous generation, inserts the new records and
// rebuilds the indexes, timing the whole load.
func replaceAll[T any](ctx context.Context, coll *mongo.Collection, records []T, indexes []mongo.IndexModel) (storagemodels.CollectionLoad, error) {
	start := time.Now()
	load := storagemodels.CollectionLoad{Collection: coll.Name()}

	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return load, fmt.Errorf("clear %s: %w", coll.Name(), err)
	}

	if len(records) > 0 {
		docs := make([]interface{}, len(records))
		for i, r := range records {
			docs[i] = r
		}
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return load, fmt.Errorf("insert into %s: %w", coll.Name(), err)
		}
	}

	if len(indexes) > 0 {
		if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
			return load, fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}

	load.Count = len(records)
	load.ElapsedSeconds = time.Since(start).Seconds()
	return load, nil
}

// --- Analytics ---

// ListClients applies the optional country and minimum-total filters with
// skip/limit pagination.
func (s *Store) ListClients(ctx context.Context, filter storagemodels.ClientFilter) ([]storagemodels.ClientSummary, error) {
	query := bson.D{}
	if filter.Country != "" {
		query = append(query, bson.E{Key: "country", Value: filter.Country})
	}
	if filter.MinTotal != nil {
		query = append(query, bson.E{Key: "total_spent", Value: bson.D{{Key: "$gte", Value: *filter.MinTotal}}})
	}

	opts := options.Find().
		SetSkip(int64(filter.Skip)).
		SetLimit(int64(filter.Limit))

	cursor, err := s.clients.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	var out []storagemodels.ClientSummary
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}
	return out, nil
}

// Client looks up a single client by id.
func (s *Store) Client(ctx context.Context, clientID int) (*storagemodels.ClientSummary, error) {
	var rec storagemodels.ClientSummary
	err := s.clients.FindOne(ctx, bson.D{{Key: "client_id", Value: clientID}}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, mederrors.NewNotFoundError("Client", strconv.Itoa(clientID))
	}
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", clientID, err)
	}
	return &rec, nil
}

// ClientCountryStats aggregates clients per country, revenue descending.
func (s *Store) ClientCountryStats(ctx context.Context) ([]storagemodels.CountryStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$country"},
			{Key: "total_clients", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total_revenue", Value: bson.D{{Key: "$sum", Value: "$total_spent"}}},
			{Key: "avg_revenue", Value: bson.D{{Key: "$avg", Value: "$total_spent"}}},
			{Key: "avg_basket", Value: bson.D{{Key: "$avg", Value: "$avg_basket"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total_revenue", Value: -1}}}},
	}

	cursor, err := s.clients.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate country stats: %w", err)
	}

	var raw []struct {
		Country      string  `bson:"_id"`
		TotalClients int     `bson:"total_clients"`
		TotalRevenue float64 `bson:"total_revenue"`
		AvgRevenue   float64 `bson:"avg_revenue"`
		AvgBasket    float64 `bson:"avg_basket"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode country stats: %w", err)
	}

	out := make([]storagemodels.CountryStats, 0, len(raw))
	for _, r := range raw {
		out = append(out, storagemodels.CountryStats{
			Country:      r.Country,
			TotalClients: r.TotalClients,
			TotalRevenue: round2(r.TotalRevenue),
			AvgRevenue:   round2(r.AvgRevenue),
			AvgBasket:    round2(r.AvgBasket),
		})
	}
	return out, nil
}

// TopClients returns the n biggest clients by total spent.
func (s *Store) TopClients(ctx context.Context, n int) ([]storagemodels.ClientSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "total_spent", Value: -1}}).
		SetLimit(int64(n))

	cursor, err := s.clients.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("top clients: %w", err)
	}
	var out []storagemodels.ClientSummary
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode top clients: %w", err)
	}
	return out, nil
}

// ListProducts returns all products sorted by revenue descending.
func (s *Store) ListProducts(ctx context.Context) ([]storagemodels.ProductStats, error) {
	opts := options.Find().SetSort(bson.D{{Key: "revenue", Value: -1}})
	cursor, err := s.products.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var out []storagemodels.ProductStats
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}

// Product looks up a product by name.
func (s *Store) Product(ctx context.Context, name string) (*storagemodels.ProductStats, error) {
	var rec storagemodels.ProductStats
	err := s.products.FindOne(ctx, bson.D{{Key: "product", Value: name}}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, mederrors.NewNotFoundError("Product", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", name, err)
	}
	return &rec, nil
}

// MonthlySales returns all monthly records ascending by month.
func (s *Store) MonthlySales(ctx context.Context) ([]storagemodels.MonthlySales, error) {
	opts := options.Find().SetSort(bson.D{{Key: "month", Value: 1}})
	cursor, err := s.monthly.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("monthly sales: %w", err)
	}
	var out []storagemodels.MonthlySales
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode monthly sales: %w", err)
	}
	return out, nil
}

// SalesByMonth looks up one month by its YYYY-MM label.
func (s *Store) SalesByMonth(ctx context.Context, month string) (*storagemodels.MonthlySales, error) {
	var rec storagemodels.MonthlySales
	err := s.monthly.FindOne(ctx, bson.D{{Key: "month", Value: month}}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, mederrors.NewNotFoundError("MonthlySales", month)
	}
	if err != nil {
		return nil, fmt.Errorf("get monthly sales %s: %w", month, err)
	}
	return &rec, nil
}

// SalesSummary rolls up all months. An empty collection yields a zero summary.
func (s *Store) SalesSummary(ctx context.Context) (storagemodels.SalesSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_revenue", Value: bson.D{{Key: "$sum", Value: "$revenue"}}},
			{Key: "total_purchases", Value: bson.D{{Key: "$sum", Value: "$purchase_count"}}},
			{Key: "avg_basket", Value: bson.D{{Key: "$avg", Value: "$avg_basket"}}},
			{Key: "month_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.monthly.Aggregate(ctx, pipeline)
	if err != nil {
		return storagemodels.SalesSummary{}, fmt.Errorf("aggregate sales summary: %w", err)
	}

	var raw []struct {
		TotalRevenue   float64 `bson:"total_revenue"`
		TotalPurchases int     `bson:"total_purchases"`
		AvgBasket      float64 `bson:"avg_basket"`
		MonthCount     int     `bson:"month_count"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return storagemodels.SalesSummary{}, fmt.Errorf("decode sales summary: %w", err)
	}
	if len(raw) == 0 {
		return storagemodels.SalesSummary{}, nil
	}

	return storagemodels.SalesSummary{
		TotalRevenue:   round2(raw[0].TotalRevenue),
		TotalPurchases: raw[0].TotalPurchases,
		AvgBasket:      round2(raw[0].AvgBasket),
		MonthCount:     raw[0].MonthCount,
	}, nil
}

// RefreshInfo returns the last publish record.
func (s *Store) RefreshInfo(ctx context.Context) (*storagemodels.RefreshMetadata, error) {
	var rec storagemodels.RefreshMetadata
	err := s.metadata.FindOne(ctx, bson.D{{Key: "_id", Value: refreshInfoID}}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, mederrors.NewNotFoundError("RefreshMetadata", refreshInfoID)
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh metadata: %w", err)
	}
	return &rec, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
