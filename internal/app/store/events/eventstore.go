// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrAlreadyRegistered  = errors.New("you are already registered for this event")
	ErrEventFull          = errors.New("event is full")
	ErrRegistrationClosed = errors.New("event is not open for registration")
	ErrNotRegistered      = errors.New("you are not registered for this event")
	ErrAttendanceClosed   = errors.New("attendance can only be marked while the event is ongoing")
	ErrAlreadyAttended    = errors.New("attendance already marked")
)

// openStatuses are the statuses that accept registrations and appear in the
// recent feed.
var openStatuses = bson.A{models.EventUpcoming, models.EventOngoing}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts an event. Status defaults to Upcoming.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Title = strings.TrimSpace(e.Title)
	if e.Status == "" {
		e.Status = models.EventUpcoming
	}
	if e.Images == nil {
		e.Images = []string{}
	}
	e.RegisteredParticipants = []primitive.ObjectID{}
	e.AttendedParticipants = []primitive.ObjectID{}
	e.IsDeleted = false
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID returns a live event or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// Recent returns up to limit Upcoming or Ongoing events dated now or later,
// soonest first, with their community populated.
func (s *Store) Recent(ctx context.Context, now time.Time, limit int) ([]models.EventView, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{
			"is_deleted": false,
			"status":     bson.M{"$in": openStatuses},
			"event_date": bson.M{"$gte": now.UTC()},
		}},
		bson.M{"$sort": bson.D{{Key: "event_date", Value: 1}, {Key: "_id", Value: 1}}},
		bson.M{"$limit": int64(limit)},
		bson.M{"$lookup": bson.M{
			"from": "communities",
			"let":  bson.M{"ref": "$community_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$ref"}}}},
				bson.M{"$project": bson.M{"name": 1, "logo": 1, "location": 1}},
			},
			"as": "community",
		}},
		bson.M{"$unwind": bson.M{"path": "$community", "preserveNullAndEmptyArrays": true}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.EventView, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForCommunity returns the community's live events by date.
func (s *Store) ListForCommunity(ctx context.Context, communityID primitive.ObjectID) ([]models.Event, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"community_id": communityID, "is_deleted": false},
		options.Find().SetSort(bson.D{{Key: "event_date", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Event, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Register adds userID to the participants in a single conditional update,
// so concurrent registrations cannot exceed max_participants. When the update
// does not apply, the event is re-read to report why.
func (s *Store) Register(ctx context.Context, id, userID primitive.ObjectID) (models.Event, error) {
	filter := bson.M{
		"_id":                     id,
		"is_deleted":              false,
		"status":                  bson.M{"$in": openStatuses},
		"registered_participants": bson.M{"$ne": userID},
		"$expr": bson.M{"$or": bson.A{
			bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$max_participants", nil}}, nil}},
			bson.M{"$lt": bson.A{
				bson.M{"$size": bson.M{"$ifNull": bson.A{"$registered_participants", bson.A{}}}},
				"$max_participants",
			}},
		}},
	}
	var e models.Event
	err := s.c.FindOneAndUpdate(ctx, filter,
		bson.M{
			"$push": bson.M{"registered_participants": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{}, err
	}

	cur, getErr := s.GetByID(ctx, id)
	if getErr != nil {
		return models.Event{}, getErr
	}
	switch {
	case slices.Contains(cur.RegisteredParticipants, userID):
		return models.Event{}, ErrAlreadyRegistered
	case cur.Status != models.EventUpcoming && cur.Status != models.EventOngoing:
		return models.Event{}, ErrRegistrationClosed
	default:
		return models.Event{}, ErrEventFull
	}
}

// MarkAttendance records that a registered userID attended an Ongoing event.
func (s *Store) MarkAttendance(ctx context.Context, id, userID primitive.ObjectID) (models.Event, error) {
	var e models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":                     id,
			"is_deleted":              false,
			"status":                  models.EventOngoing,
			"registered_participants": userID,
			"attended_participants":   bson.M{"$ne": userID},
		},
		bson.M{
			"$push": bson.M{"attended_participants": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{}, err
	}

	cur, getErr := s.GetByID(ctx, id)
	if getErr != nil {
		return models.Event{}, getErr
	}
	switch {
	case !slices.Contains(cur.RegisteredParticipants, userID):
		return models.Event{}, ErrNotRegistered
	case slices.Contains(cur.AttendedParticipants, userID):
		return models.Event{}, ErrAlreadyAttended
	default:
		return models.Event{}, ErrAttendanceClosed
	}
}
