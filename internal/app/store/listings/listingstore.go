// internal/app/store/listings/listingstore.go
package listingstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("marketplace_listings")}
}

// Create inserts a listing awaiting moderation.
func (s *Store) Create(ctx context.Context, l models.MarketplaceListing) (models.MarketplaceListing, error) {
	now := time.Now().UTC()
	l.ID = primitive.NewObjectID()
	l.Title = strings.TrimSpace(l.Title)
	l.Status = models.ListingPending
	l.IsDeleted = false
	l.CreatedAt = now
	l.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.MarketplaceListing{}, err
	}
	return l, nil
}

// ListApproved returns the community's approved listings, newest first.
func (s *Store) ListApproved(ctx context.Context, communityID primitive.ObjectID) ([]models.MarketplaceListing, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"community_id": communityID, "status": models.ListingApproved, "is_deleted": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.MarketplaceListing, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus moderates a live listing and returns it updated, or
// mongo.ErrNoDocuments.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (models.MarketplaceListing, error) {
	var l models.MarketplaceListing
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&l)
	if err != nil {
		return models.MarketplaceListing{}, err
	}
	return l, nil
}
