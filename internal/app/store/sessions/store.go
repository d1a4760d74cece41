// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/tokens"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoSession is returned when a refresh token does not match the user's
// current session (never issued, superseded, logged out or expired).
var ErrNoSession = errors.New("no matching session")

// Store keeps exactly one refresh-token session per user.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

// Replace makes refresh the user's only valid refresh token, superseding any
// earlier one.
func (s *Store) Replace(ctx context.Context, userID primitive.ObjectID, refresh tokens.Refresh, ip, userAgent string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set": bson.M{
				"token_hash": tokens.Hash(refresh.Token),
				"token_id":   refresh.TokenID,
				"ip":         ip,
				"user_agent": userAgent,
				"issued_at":  refresh.IssuedAt.UTC(),
				"expires_at": refresh.ExpiresAt.UTC(),
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Verify returns the session when token is the user's current, unexpired
// refresh token, and ErrNoSession otherwise.
func (s *Store) Verify(ctx context.Context, userID primitive.ObjectID, token string) (models.Session, error) {
	var sess models.Session
	err := s.c.FindOne(ctx, bson.M{
		"user_id":    userID,
		"token_hash": tokens.Hash(token),
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Session{}, ErrNoSession
	}
	if err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// Delete revokes the user's session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

// GetByUser returns the user's session, or mongo.ErrNoDocuments.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID) (models.Session, error) {
	var sess models.Session
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// DeleteExpired removes sessions whose refresh token has expired. Mongo's TTL
// monitor does the same on its own schedule; this makes removal prompt.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
