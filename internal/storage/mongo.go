package storage

import (
	"context"
	"fmt"
	"time"

	"jobhire/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names. Users and applications pre-exist this service.
const (
	ColUsers         = "users"
	ColApplications  = "applications"
	ColSubscriptions = "subscriptions"
	ColPayments      = "payments"
	ColWebhookEvents = "webhook_events"
)

// Store owns the MongoDB client lifecycle: opened once at startup, handed
// down to repositories, closed at shutdown.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens the client, verifies connectivity and creates the schema
// indexes the billing workflow relies on.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURL).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(cfg.MongoDatabase)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Database returns the application database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Collection returns a collection handle by name.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ensureIndexes creates the unique indexes the application logic depends on.
// Webhook idempotency is a check-then-act sequence in the workflow; the
// unique index on event_id is what closes the race between concurrent
// deliveries of the same event. One subscription per user is likewise
// enforced here, not only in code.
func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		ColWebhookEvents: {
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		ColSubscriptions: {
			{
				Keys: bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "user_id", Value: bson.D{{Key: "$gt", Value: ""}}}}),
			},
			{Keys: bson.D{{Key: "stripe_subscription_id", Value: 1}}},
			{Keys: bson.D{{Key: "stripe_customer_id", Value: 1}}},
		},
		ColPayments: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		ColUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "stripe_customer_id", Value: 1}}},
		},
		ColApplications: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}
