package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobhire/internal/model"
	"jobhire/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WebhookEventRepository persists the provider event audit log. The
// collection carries a unique index on event_id, so Create on a concurrently
// delivered duplicate surfaces ErrDuplicateKey instead of a second record.
type WebhookEventRepository interface {
	Create(ctx context.Context, evt *model.WebhookEvent) error
	FindByEventID(ctx context.Context, eventID string) (*model.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id primitive.ObjectID) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, errMsg string) error
}

type webhookEventRepo struct {
	*Collection[model.WebhookEvent]
	col *mongo.Collection
}

// NewWebhookEventRepo creates a new WebhookEventRepository.
func NewWebhookEventRepo(store *storage.Store) WebhookEventRepository {
	col := store.Collection(storage.ColWebhookEvents)
	return &webhookEventRepo{
		Collection: NewCollection[model.WebhookEvent](col),
		col:        col,
	}
}

// FindByEventID returns the delivery record for the provider event id, or
// (nil, nil) when the event has never been seen.
func (r *webhookEventRepo) FindByEventID(ctx context.Context, eventID string) (*model.WebhookEvent, error) {
	var evt model.WebhookEvent
	err := r.col.FindOne(ctx, bson.D{{Key: "event_id", Value: eventID}}).Decode(&evt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find webhook event %s: %w", eventID, err)
	}
	return &evt, nil
}

// MarkProcessed flags the event as applied and clears any previous error.
func (r *webhookEventRepo) MarkProcessed(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "processed", Value: true},
				{Key: "processed_at", Value: now},
			}},
			{Key: "$unset", Value: bson.D{{Key: "error", Value: ""}}},
		},
	)
	if err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mark webhook event processed: %w", ErrNotFound)
	}
	return nil
}

// MarkFailed records the handler error and leaves the event unprocessed so a
// provider redelivery or manual replay retries it.
func (r *webhookEventRepo) MarkFailed(ctx context.Context, id primitive.ObjectID, errMsg string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "processed", Value: false},
			{Key: "error", Value: errMsg},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mark webhook event failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mark webhook event failed: %w", ErrNotFound)
	}
	return nil
}
