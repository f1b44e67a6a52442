package repository

import (
	"context"
	"fmt"

	"jobhire/internal/model"
	"jobhire/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentRepository defines persistence for payment records. Payments are
// immutable once created apart from provider-driven status transitions.
type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	Update(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Payment, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.Payment, error)
}

type paymentRepo struct {
	*Collection[model.Payment]
	col *mongo.Collection
}

// NewPaymentRepo creates a new PaymentRepository.
func NewPaymentRepo(store *storage.Store) PaymentRepository {
	col := store.Collection(storage.ColPayments)
	return &paymentRepo{
		Collection: NewCollection[model.Payment](col),
		col:        col,
	}
}

// ListByUser returns the user's payments, newest first.
func (r *paymentRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]model.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.col.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list payments for user %s: %w", userID, err)
	}
	defer cur.Close(ctx)

	var payments []model.Payment
	if err := cur.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("decode payments for user %s: %w", userID, err)
	}
	return payments, nil
}
