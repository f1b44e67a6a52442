package repository

import (
	"context"
	"fmt"
	"iter"

	"jobhire/internal/model"
	"jobhire/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GroupCount is one (key, count) pair produced by an aggregation query.
type GroupCount struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

// ApplicationRepository persists job applications and serves the read-only
// aggregation queries the operator tooling runs. The grouped sequences are
// ordered by count descending; order between tied counts is whatever the
// grouping produced and is not guaranteed across reruns. Each range over a
// returned sequence re-runs the query, so the sequences are restartable.
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Application, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.Application, error)
	TotalCount(ctx context.Context) (int64, error)
	CountByUser(ctx context.Context) iter.Seq2[GroupCount, error]
	CountByStatus(ctx context.Context, userID string) iter.Seq2[GroupCount, error]
}

type applicationRepo struct {
	*Collection[model.Application]
	col *mongo.Collection
}

// NewApplicationRepo creates a new ApplicationRepository.
func NewApplicationRepo(store *storage.Store) ApplicationRepository {
	col := store.Collection(storage.ColApplications)
	return &applicationRepo{
		Collection: NewCollection[model.Application](col),
		col:        col,
	}
}

// ListByUser returns the user's applications, newest first.
func (r *applicationRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]model.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.col.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list applications for user %s: %w", userID, err)
	}
	defer cur.Close(ctx)

	var apps []model.Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("decode applications for user %s: %w", userID, err)
	}
	return apps, nil
}

// TotalCount counts all application documents.
func (r *applicationRepo) TotalCount(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return n, nil
}

// CountByUser groups applications by user id, count descending.
func (r *applicationRepo) CountByUser(ctx context.Context) iter.Seq2[GroupCount, error] {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$user_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	return r.groupSeq(ctx, pipeline)
}

// CountByStatus groups one user's applications by status, count descending.
func (r *applicationRepo) CountByStatus(ctx context.Context, userID string) iter.Seq2[GroupCount, error] {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "user_id", Value: userID}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	return r.groupSeq(ctx, pipeline)
}

// groupSeq runs the pipeline lazily on each iteration, streaming rows off the
// cursor. A query or decode failure is yielded once as the terminal pair.
func (r *applicationRepo) groupSeq(ctx context.Context, pipeline mongo.Pipeline) iter.Seq2[GroupCount, error] {
	return func(yield func(GroupCount, error) bool) {
		cur, err := r.col.Aggregate(ctx, pipeline)
		if err != nil {
			yield(GroupCount{}, fmt.Errorf("aggregate applications: %w", err))
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var gc GroupCount
			if err := cur.Decode(&gc); err != nil {
				yield(GroupCount{}, fmt.Errorf("decode group count: %w", err))
				return
			}
			if !yield(gc, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(GroupCount{}, fmt.Errorf("iterate group counts: %w", err))
		}
	}
}
