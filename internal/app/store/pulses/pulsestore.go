// internal/app/store/pulses/pulsestore.go
package pulsestore

import (
	"context"
	"errors"
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
	return &Store{c: db.Collection("pulses")}
}

// Create inserts a pulse awaiting moderation.
func (s *Store) Create(ctx context.Context, p models.Pulse) (models.Pulse, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Title = strings.TrimSpace(p.Title)
	p.Status = models.PulsePending
	p.Likes = []primitive.ObjectID{}
	p.Comments = []models.PulseComment{}
	p.IsDeleted = false
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Pulse{}, err
	}
	return p, nil
}

// ListApproved returns the community's approved pulses, newest first.
func (s *Store) ListApproved(ctx context.Context, communityID primitive.ObjectID) ([]models.Pulse, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"community_id": communityID, "status": models.PulseApproved, "is_deleted": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Pulse, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) update(ctx context.Context, filter, update bson.M) (models.Pulse, error) {
	var p models.Pulse
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return models.Pulse{}, err
	}
	return p, nil
}

// SetStatus moderates a live pulse, or returns mongo.ErrNoDocuments.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (models.Pulse, error) {
	return s.update(ctx,
		bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
}

// ToggleLike adds userID to the likes of an approved pulse, or removes it if
// present. It reports whether the pulse is now liked by userID.
func (s *Store) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (models.Pulse, bool, error) {
	now := time.Now().UTC()
	p, err := s.update(ctx,
		bson.M{"_id": id, "is_deleted": false, "status": models.PulseApproved, "likes": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"likes": userID}, "$set": bson.M{"updated_at": now}})
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Pulse{}, false, err
	}

	p, err = s.update(ctx,
		bson.M{"_id": id, "is_deleted": false, "status": models.PulseApproved, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}, "$set": bson.M{"updated_at": now}})
	if err != nil {
		return models.Pulse{}, false, err
	}
	return p, false, nil
}

// AddComment appends a comment to an approved pulse.
func (s *Store) AddComment(ctx context.Context, id, userID primitive.ObjectID, body string) (models.Pulse, error) {
	now := time.Now().UTC()
	c := models.PulseComment{ID: primitive.NewObjectID(), UserID: userID, Text: strings.TrimSpace(body), CreatedAt: now}
	return s.update(ctx,
		bson.M{"_id": id, "is_deleted": false, "status": models.PulseApproved},
		bson.M{"$push": bson.M{"comments": c}, "$set": bson.M{"updated_at": now}})
}
