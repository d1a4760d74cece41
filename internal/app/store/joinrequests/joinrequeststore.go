// internal/app/store/joinrequests/joinrequeststore.go
package joinrequeststore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrAlreadyRequested is returned when the user already has a live request
	// for the community, whatever its status.
	ErrAlreadyRequested = errors.New("you have already requested to join this community")
	// ErrNotPending is returned when reviewing a request that was already decided.
	ErrNotPending = errors.New("join request has already been reviewed")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("community_join_requests")}
}

// Create opens a Pending request. A soft-deleted request for the same pair is
// reactivated in place with fresh timestamps and cleared review fields.
func (s *Store) Create(ctx context.Context, userID, communityID primitive.ObjectID, message string) (models.JoinRequest, error) {
	now := time.Now().UTC()
	message = strings.TrimSpace(message)

	var existing models.JoinRequest
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "community_id": communityID}).Decode(&existing)
	switch {
	case err == nil && !existing.IsDeleted:
		return models.JoinRequest{}, ErrAlreadyRequested
	case err == nil:
		return s.reactivate(ctx, existing.ID, message, now)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return models.JoinRequest{}, err
	}

	jr := models.JoinRequest{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		CommunityID: communityID,
		Message:     message,
		Status:      models.JoinPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, jr); err != nil {
		if wafflemongo.IsDup(err) {
			return models.JoinRequest{}, ErrAlreadyRequested
		}
		return models.JoinRequest{}, err
	}
	return jr, nil
}

func (s *Store) reactivate(ctx context.Context, id primitive.ObjectID, message string, now time.Time) (models.JoinRequest, error) {
	var jr models.JoinRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_deleted": true},
		bson.M{
			"$set": bson.M{
				"message":      message,
				"status":       models.JoinPending,
				"reviewed_by":  nil,
				"reviewed_at":  nil,
				"review_notes": "",
				"is_deleted":   false,
				"created_at":   now,
				"updated_at":   now,
			},
			"$unset": bson.M{"deleted_at": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&jr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Another request reactivated it first.
		return models.JoinRequest{}, ErrAlreadyRequested
	}
	if err != nil {
		return models.JoinRequest{}, err
	}
	return jr, nil
}

// GetByID returns a live request or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.JoinRequest, error) {
	var jr models.JoinRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&jr); err != nil {
		return models.JoinRequest{}, err
	}
	return jr, nil
}

// ListForUser returns the user's live requests, newest first, with the
// community and reviewer populated.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.JoinRequestView, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"user_id": userID, "is_deleted": false}},
		bson.M{"$sort": bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
	}
	pipeline = append(pipeline, lookupOne("communities", "community_id", "community", "name", "logo", "location")...)
	pipeline = append(pipeline, lookupOne("users", "reviewed_by", "reviewer", "name")...)
	return s.aggregate(ctx, pipeline)
}

// ListForCommunity returns the community's live requests, newest first, with
// the requester and reviewer populated. An empty status lists every status.
func (s *Store) ListForCommunity(ctx context.Context, communityID primitive.ObjectID, status string) ([]models.JoinRequestView, error) {
	match := bson.M{"community_id": communityID, "is_deleted": false}
	if status != "" {
		match["status"] = status
	}
	pipeline := bson.A{
		bson.M{"$match": match},
		bson.M{"$sort": bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
	}
	pipeline = append(pipeline, lookupOne("users", "user_id", "user", "name", "email")...)
	pipeline = append(pipeline, lookupOne("users", "reviewed_by", "reviewer", "name")...)
	return s.aggregate(ctx, pipeline)
}

// lookupOne joins the single document of from whose _id equals localField
// into as, keeping only fields. A missing match leaves as unset.
func lookupOne(from, localField, as string, fields ...string) bson.A {
	project := bson.M{}
	for _, f := range fields {
		project[f] = 1
	}
	return bson.A{
		bson.M{"$lookup": bson.M{
			"from": from,
			"let":  bson.M{"ref": "$" + localField},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$ref"}}}},
				bson.M{"$project": project},
			},
			"as": as,
		}},
		bson.M{"$unwind": bson.M{"path": "$" + as, "preserveNullAndEmptyArrays": true}},
	}
}

func (s *Store) aggregate(ctx context.Context, pipeline bson.A) ([]models.JoinRequestView, error) {
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.JoinRequestView, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Review moves a Pending request to Approved or Rejected. It returns
// mongo.ErrNoDocuments for unknown requests and ErrNotPending when the
// request was already decided.
func (s *Store) Review(ctx context.Context, id, reviewerID primitive.ObjectID, status, notes string) (models.JoinRequest, error) {
	now := time.Now().UTC()
	var jr models.JoinRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_deleted": false, "status": models.JoinPending},
		bson.M{"$set": bson.M{
			"status":       status,
			"reviewed_by":  reviewerID,
			"reviewed_at":  now,
			"review_notes": strings.TrimSpace(notes),
			"updated_at":   now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&jr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return models.JoinRequest{}, getErr
		}
		return models.JoinRequest{}, ErrNotPending
	}
	if err != nil {
		return models.JoinRequest{}, err
	}
	return jr, nil
}

// Withdraw soft-deletes the owner's request and returns it as it was before
// deletion. Requests owned by someone else report mongo.ErrNoDocuments.
func (s *Store) Withdraw(ctx context.Context, id, userID primitive.ObjectID) (models.JoinRequest, error) {
	now := time.Now().UTC()
	var jr models.JoinRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true, "deleted_at": now, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&jr)
	if err != nil {
		return models.JoinRequest{}, err
	}
	return jr, nil
}
