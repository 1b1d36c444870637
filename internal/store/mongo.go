package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/williampepple1/scrape-api/pkg/models"
)

const scrapesCollection = "scrapes"

// MongoStore persists scrape history in MongoDB.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures
// the query indexes exist.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging mongodb")
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(scrapesCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "scrape_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "request.url", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{
			{Key: "metadata.success", Value: 1},
			{Key: "metadata.scrape_mode", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return errors.Wrap(err, "creating indexes")
}

// Create implements Store.
func (s *MongoStore) Create(ctx context.Context, doc *models.StoredScrape) (string, error) {
	now := time.Now().UTC()
	doc.ScrapeID = uuid.NewString()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return "", errors.Wrap(err, "inserting scrape")
	}
	return doc.ScrapeID, nil
}

// GetByID implements Store.
func (s *MongoStore) GetByID(ctx context.Context, scrapeID string) (*models.StoredScrape, error) {
	var doc models.StoredScrape
	err := s.collection.FindOne(ctx, bson.M{"scrape_id": scrapeID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetching scrape")
	}
	return &doc, nil
}

// Find implements Store.
func (s *MongoStore) Find(ctx context.Context, q Query) ([]models.StoredScrape, int64, error) {
	filter := buildFilter(q)

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting scrapes")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(q.Offset))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying scrapes")
	}
	defer cursor.Close(ctx)

	results := []models.StoredScrape{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, errors.Wrap(err, "decoding scrapes")
	}
	return results, total, nil
}

// Stats implements Store.
func (s *MongoStore) Stats(ctx context.Context, from, to time.Time) ([]models.ScrapeStatistics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"created_at": bson.M{"$gte": from, "$lte": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"mode":    "$metadata.scrape_mode",
				"success": "$metadata.success",
			},
			"count":        bson.M{"$sum": 1},
			"avg_duration": bson.M{"$avg": "$metadata.duration_ms"},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "aggregating statistics")
	}
	defer cursor.Close(ctx)

	var raw []struct {
		ID struct {
			Mode    string `bson:"mode"`
			Success bool   `bson:"success"`
		} `bson:"_id"`
		Count       int64   `bson:"count"`
		AvgDuration float64 `bson:"avg_duration"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding statistics")
	}

	stats := make([]models.ScrapeStatistics, 0, len(raw))
	for _, r := range raw {
		stats = append(stats, models.ScrapeStatistics{
			Mode:          r.ID.Mode,
			Success:       r.ID.Success,
			Count:         r.Count,
			AvgDurationMS: r.AvgDuration,
		})
	}
	return stats, nil
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func buildFilter(q Query) bson.M {
	filter := bson.M{}
	if q.URL != "" {
		filter["request.url"] = q.URL
	}
	if q.Mode != "" {
		filter["metadata.scrape_mode"] = q.Mode
	}
	if q.Success != nil {
		filter["metadata.success"] = *q.Success
	}
	if q.From != nil || q.To != nil {
		created := bson.M{}
		if q.From != nil {
			created["$gte"] = *q.From
		}
		if q.To != nil {
			created["$lte"] = *q.To
		}
		filter["created_at"] = created
	}
	return filter
}
