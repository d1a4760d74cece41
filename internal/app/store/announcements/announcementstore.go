// internal/app/store/announcements/announcementstore.go
package announcementstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

// Create inserts an announcement. Status defaults to Published and
// PublishDate to now.
func (s *Store) Create(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Title = strings.TrimSpace(a.Title)
	if a.Status == "" {
		a.Status = models.AnnouncementPublished
	}
	if a.PublishDate.IsZero() {
		a.PublishDate = now
	}
	a.IsDeleted = false
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

// visible matches Published announcements whose publish window contains now.
func visible(now time.Time) bson.M {
	return bson.M{
		"is_deleted":   false,
		"status":       models.AnnouncementPublished,
		"publish_date": bson.M{"$lte": now},
		"$or": bson.A{
			bson.M{"expiry_date": nil},
			bson.M{"expiry_date": bson.M{"$gte": now}},
		},
	}
}

var pinnedFirst = bson.D{{Key: "is_pinned", Value: -1}, {Key: "publish_date", Value: -1}, {Key: "_id", Value: -1}}

// Recent returns up to limit visible announcements, pinned first then newest,
// with their community populated.
func (s *Store) Recent(ctx context.Context, now time.Time, limit int) ([]models.AnnouncementView, error) {
	pipeline := bson.A{
		bson.M{"$match": visible(now.UTC())},
		bson.M{"$sort": pinnedFirst},
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

	out := make([]models.AnnouncementView, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForCommunity returns the community's visible announcements, pinned first.
func (s *Store) ListForCommunity(ctx context.Context, communityID primitive.ObjectID, now time.Time) ([]models.Announcement, error) {
	filter := visible(now.UTC())
	filter["community_id"] = communityID

	cur, err := s.c.Aggregate(ctx, bson.A{
		bson.M{"$match": filter},
		bson.M{"$sort": pinnedFirst},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Announcement, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
