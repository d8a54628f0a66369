package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quote_spider/internal/config"
	"quote_spider/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

var ErrRunNotFound = errors.New("run not found")

// MongoDB stores run history: one document per terminated run.
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	runs     *mongo.Collection
}

func NewMongoDB(ctx context.Context, cfg config.DBConfig) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)
	d := &MongoDB{
		client:   client,
		database: database,
		runs:     database.Collection(cfg.Collections.Runs),
	}

	if err := d.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't create indexes: %w", err)
	}

	return d, nil
}

func (d *MongoDB) createIndexes(ctx context.Context) error {
	_, err := d.runs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tag", Value: 1}, {Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "started_at", Value: -1}}},
	})
	return err
}

func (d *MongoDB) SaveRun(ctx context.Context, h *models.CrawlHistory) error {
	if _, err := d.runs.InsertOne(ctx, h); err != nil {
		return fmt.Errorf("insert run %s: %w", h.ID, err)
	}
	return nil
}

func (d *MongoDB) GetRun(ctx context.Context, id string) (*models.CrawlHistory, error) {
	var h models.CrawlHistory
	err := d.runs.FindOne(ctx, bson.M{"_id": id}).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find run %s: %w", id, err)
	}
	return &h, nil
}

// ListRuns returns the most recent runs, newest first, optionally for one tag.
func (d *MongoDB) ListRuns(ctx context.Context, tag string, limit int) ([]models.CrawlHistory, error) {
	cursor, err := d.runs.Find(ctx, runsFilter(tag), listOptions(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := make([]models.CrawlHistory, 0)
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return runs, nil
}

func (d *MongoDB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

func (d *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

func runsFilter(tag string) bson.M {
	if tag == "" {
		return bson.M{}
	}
	return bson.M{"tag": tag}
}

func listOptions(limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(clampLimit(limit)))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
