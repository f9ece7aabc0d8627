package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/infrastructure/repository/entity"
	"shopify-auth-layer/internal/ports"
)

// MongoSessionRepository implements SessionRepository using MongoDB.
type MongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a session repository backed by the
// "sessions" collection.
func NewMongoSessionRepository(db *mongo.Database) ports.SessionRepository {
	return &MongoSessionRepository{
		collection: db.Collection("sessions"),
	}
}

// Save upserts a session by its id, so re-authorizing a shop replaces the
// previous token.
func (r *MongoSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	doc := entity.MongoSessionDocFromDomain(session)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": doc.ID}
	update := bson.M{"$set": doc}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by id. A missing session is (nil, nil).
func (r *MongoSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var doc entity.MongoSessionDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return doc.ToDomain(), nil
}

// GetByShop retrieves every session stored for a shop (at most one offline and
// one online per user model).
func (r *MongoSessionRepository) GetByShop(ctx context.Context, shop domain.ShopDomain) ([]*domain.Session, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"shop": shop.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*domain.Session
	for cursor.Next(ctx) {
		var doc entity.MongoSessionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
		sessions = append(sessions, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return sessions, nil
}

// Delete removes a session by id.
func (r *MongoSessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByShop removes every session for a shop, used when the app is
// uninstalled.
func (r *MongoSessionRepository) DeleteByShop(ctx context.Context, shop domain.ShopDomain) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"shop": shop.String()}); err != nil {
		return fmt.Errorf("failed to delete sessions for shop: %w", err)
	}
	return nil
}
