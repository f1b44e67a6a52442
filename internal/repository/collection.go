package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the uniform persistence contract over one document
// collection, parameterized by entity type. Document conversion is the
// entity's bson tags, so a repository that forgets it fails to compile, not
// at first use.
type Collection[T any] struct {
	col *mongo.Collection
}

// NewCollection wraps a mongo collection for entity type T.
func NewCollection[T any](col *mongo.Collection) *Collection[T] {
	return &Collection[T]{col: col}
}

// Create inserts a new document. Returns ErrDuplicateKey when a document
// with the same identity (or a colliding unique index value) already exists.
func (c *Collection[T]) Create(ctx context.Context, entity *T) error {
	if _, err := c.col.InsertOne(ctx, entity); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert into %s: %w", c.col.Name(), ErrDuplicateKey)
		}
		return fmt.Errorf("insert into %s: %w", c.col.Name(), err)
	}
	return nil
}

// Update replaces the stored document for the entity's identity. This is a
// strict update: replacing a document that was never created returns
// ErrNotFound rather than silently upserting, so a lost write is visible.
func (c *Collection[T]) Update(ctx context.Context, entity *T) error {
	raw, err := bson.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", c.col.Name(), err)
	}
	id, err := bson.Raw(raw).LookupErr("_id")
	if err != nil {
		return fmt.Errorf("%s document has no _id: %w", c.col.Name(), err)
	}
	res, err := c.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, entity)
	if err != nil {
		return fmt.Errorf("replace in %s: %w", c.col.Name(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace in %s: %w", c.col.Name(), ErrNotFound)
	}
	return nil
}

// FindByID returns the entity, or (nil, nil) when no document has the given
// identity. Absence is a result, not an error.
func (c *Collection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	err := c.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.col.Name(), err)
	}
	return &doc, nil
}

// DeleteByID removes the document and reports whether one was actually
// removed. Deleting a nonexistent id is not an error.
func (c *Collection[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := c.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", c.col.Name(), err)
	}
	return res.DeletedCount > 0, nil
}
