// Package mongo backs the transaction store with a MongoDB collection,
// matching the document layout of the original seed dataset.
package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"salestats/internal/core"
	"salestats/internal/store"
)

const collectionName = "transactions"

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect establishes and pings a MongoDB connection.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

// transactionDoc is the BSON shape of one record.
type transactionDoc struct {
	ID          int64     `bson:"id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Price       float64   `bson:"price"`
	DateOfSale  time.Time `bson:"dateOfSale"`
	Category    string    `bson:"category"`
	Sold        bool      `bson:"sold"`
}

func (d transactionDoc) toCore() core.Transaction {
	return core.Transaction{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       decimal.NewFromFloat(d.Price),
		DateOfSale:  d.DateOfSale.UTC(),
		Category:    d.Category,
		Sold:        d.Sold,
	}
}

func fromCore(t core.Transaction) transactionDoc {
	return transactionDoc{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Price:       t.Price.InexactFloat64(),
		DateOfSale:  t.DateOfSale.UTC(),
		Category:    t.Category,
		Sold:        t.Sold,
	}
}

func (s *Store) FindInWindow(ctx context.Context, w core.MonthWindow, f store.Filter, skip, limit int64) ([]core.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.coll.Find(ctx, buildFilter(w, f), opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.Transaction
	for cur.Next(ctx) {
		var doc transactionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, doc.toCore())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) CountInWindow(ctx context.Context, w core.MonthWindow, f store.Filter) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, buildFilter(w, f))
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) SumPriceInWindow(ctx context.Context, w core.MonthWindow, f store.Filter) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(w, f)}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$price"}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transaction prices: %w", err)
	}
	defer cur.Close(ctx)

	var row struct {
		Total float64 `bson:"total"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return decimal.Zero, fmt.Errorf("decode sum row: %w", err)
		}
	}
	if err := cur.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterate sum rows: %w", err)
	}
	return decimal.NewFromFloat(row.Total), nil
}

func (s *Store) GroupCountInWindow(ctx context.Context, w core.MonthWindow, field string) (map[string]int64, error) {
	if field != store.GroupFieldCategory {
		return nil, fmt.Errorf("unsupported group field %q", field)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: windowFilter(w)}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("group transactions by %s: %w", field, err)
	}
	defer cur.Close(ctx)

	groups := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Category string `bson:"_id"`
			Count    int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode group row: %w", err)
		}
		groups[row.Category] = row.Count
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate group rows: %w", err)
	}
	return groups, nil
}

func (s *Store) ReplaceAll(ctx context.Context, ds []core.Transaction) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if len(ds) == 0 {
		return nil
	}

	docs := make([]interface{}, len(ds))
	for i, t := range ds {
		docs[i] = fromCore(t)
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func windowFilter(w core.MonthWindow) bson.M {
	return bson.M{"dateOfSale": bson.M{"$gte": w.Start, "$lt": w.End}}
}

func buildFilter(w core.MonthWindow, f store.Filter) bson.M {
	filter := windowFilter(w)

	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"price": f.SearchPrice.InexactFloat64()},
		}
	}
	if f.Sold != nil {
		filter["sold"] = *f.Sold
	}

	price := bson.M{}
	if f.PriceMin != nil {
		price["$gte"] = f.PriceMin.InexactFloat64()
	}
	if f.PriceMax != nil {
		price["$lt"] = f.PriceMax.InexactFloat64()
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	return filter
}
