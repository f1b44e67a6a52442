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

// UserRepository covers the reads billing needs against the users collection
// plus the one write it owns: the Stripe customer reference.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*model.User, error)
	SetStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error
}

type userRepo struct {
	*Collection[model.User]
	col *mongo.Collection
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(store *storage.Store) UserRepository {
	col := store.Collection(storage.ColUsers)
	return &userRepo{
		Collection: NewCollection[model.User](col),
		col:        col,
	}
}

func (r *userRepo) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	var u model.User
	err := r.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// FindByID looks a user up by the hex form of its document id. A
// syntactically invalid id is a validation failure, not a lookup miss.
func (r *userRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id %q", model.ErrValidation, userID)
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *userRepo) FindByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "stripe_customer_id", Value: stripeCustomerID}})
}

func (r *userRepo) SetStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id %q", model.ErrValidation, userID)
	}
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "stripe_customer_id", Value: stripeCustomerID},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("set stripe customer id for user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("set stripe customer id for user %s: %w", userID, ErrNotFound)
	}
	return nil
}
