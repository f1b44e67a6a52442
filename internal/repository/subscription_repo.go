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

// SubscriptionRepository defines persistence for subscription documents.
// Subscriptions are never hard-deleted; cancellation is a status change.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	Update(ctx context.Context, sub *model.Subscription) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Subscription, error)
	FindByUserID(ctx context.Context, userID string) (*model.Subscription, error)
	FindByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)
	FindByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*model.Subscription, error)
	// AddAddon attaches an addon key to the user's subscription set.
	// Attaching an already-present key is a no-op.
	AddAddon(ctx context.Context, userID, addonKey string) error
}

type subscriptionRepo struct {
	*Collection[model.Subscription]
	col *mongo.Collection
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(store *storage.Store) SubscriptionRepository {
	col := store.Collection(storage.ColSubscriptions)
	return &subscriptionRepo{
		Collection: NewCollection[model.Subscription](col),
		col:        col,
	}
}

func (r *subscriptionRepo) findOne(ctx context.Context, filter bson.D) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.col.FindOne(ctx, filter).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) FindByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	return r.findOne(ctx, bson.D{{Key: "user_id", Value: userID}})
}

func (r *subscriptionRepo) FindByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	return r.findOne(ctx, bson.D{{Key: "stripe_subscription_id", Value: stripeSubscriptionID}})
}

func (r *subscriptionRepo) FindByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*model.Subscription, error) {
	return r.findOne(ctx, bson.D{{Key: "stripe_customer_id", Value: stripeCustomerID}})
}

func (r *subscriptionRepo) AddAddon(ctx context.Context, userID, addonKey string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		bson.D{
			{Key: "$addToSet", Value: bson.D{{Key: "addons", Value: addonKey}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return fmt.Errorf("add addon %s for user %s: %w", addonKey, userID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("add addon %s for user %s: %w", addonKey, userID, ErrNotFound)
	}
	return nil
}
