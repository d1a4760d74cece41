// internal/app/store/communities/communitystore.go
package communitystore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/paging"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatusAll disables status filtering in List.
const StatusAll = "all"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("communities")}
}

// ListFilter selects a page of the directory. Search is a case-insensitive
// substring matched against name, description and city. Status matches any
// casing of the stored value; empty or StatusAll means every status.
type ListFilter struct {
	Search string
	Status string
	Page   paging.Params
}

func live(filter bson.M) bson.M {
	filter["is_deleted"] = false
	return filter
}

// statusMatch matches every stored casing of status ("active", "Active", "ACTIVE").
func statusMatch(status string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(status)) + "$", Options: "i"}
}

func (f ListFilter) query() bson.M {
	q := live(bson.M{})
	if s := strings.TrimSpace(f.Status); s != "" && !strings.EqualFold(s, StatusAll) {
		q["status"] = statusMatch(s)
	}
	if term := text.Fold(f.Search); term != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name_ci": re},
			bson.M{"description_ci": re},
			bson.M{"location.city_ci": re},
		}
	}
	return q
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// List returns one page of communities, newest first, with amenities and
// creator populated, and the total number of matches across all pages.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.CommunityView, int64, error) {
	q := f.query()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	pipeline := bson.A{
		bson.M{"$match": q},
		bson.M{"$sort": newestFirst},
		bson.M{"$skip": f.Page.Skip()},
	}
	if f.Page.Limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": int64(f.Page.Limit)})
	}
	items, err := s.aggregate(ctx, append(pipeline, populate()...))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Featured returns up to limit featured active communities. When none are
// flagged it falls back to the most recently created active ones.
func (s *Store) Featured(ctx context.Context, limit int) ([]models.CommunityView, error) {
	page := func(filter bson.M) bson.A {
		return append(bson.A{
			bson.M{"$match": filter},
			bson.M{"$sort": newestFirst},
			bson.M{"$limit": int64(max(limit, 1))},
		}, populate()...)
	}

	items, err := s.aggregate(ctx, page(live(bson.M{"status": statusMatch(models.CommunityActive), "is_featured": true})))
	if err != nil || len(items) > 0 {
		return items, err
	}
	return s.aggregate(ctx, page(live(bson.M{"status": statusMatch(models.CommunityActive)})))
}

// GetView returns a non-deleted community with amenities and creator
// populated, or mongo.ErrNoDocuments.
func (s *Store) GetView(ctx context.Context, id primitive.ObjectID) (models.CommunityView, error) {
	items, err := s.aggregate(ctx, append(bson.A{bson.M{"$match": live(bson.M{"_id": id})}}, populate()...))
	if err != nil {
		return models.CommunityView{}, err
	}
	if len(items) == 0 {
		return models.CommunityView{}, mongo.ErrNoDocuments
	}
	return items[0], nil
}

// populate joins the live amenities referenced by amenity_ids (by category
// then name) and the creating user.
func populate() bson.A {
	return bson.A{
		bson.M{"$lookup": bson.M{
			"from": "amenities",
			"let":  bson.M{"ids": bson.M{"$ifNull": bson.A{"$amenity_ids", bson.A{}}}},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$in": bson.A{"$_id", "$$ids"}},
					bson.M{"$ne": bson.A{"$is_deleted", true}},
				}}}},
				bson.M{"$sort": bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}},
				bson.M{"$project": bson.M{"name": 1, "icon": 1, "category": 1}},
			},
			"as": "amenities",
		}},
		bson.M{"$lookup": bson.M{
			"from": "users",
			"let":  bson.M{"ref": "$created_by"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$ref"}}}},
				bson.M{"$project": bson.M{"name": 1, "email": 1}},
			},
			"as": "creator",
		}},
		bson.M{"$unwind": bson.M{"path": "$creator", "preserveNullAndEmptyArrays": true}},
	}
}

func (s *Store) aggregate(ctx context.Context, pipeline bson.A) ([]models.CommunityView, error) {
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.CommunityView, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a non-deleted community or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Community, error) {
	var c models.Community
	if err := s.c.FindOne(ctx, live(bson.M{"_id": id})).Decode(&c); err != nil {
		return models.Community{}, err
	}
	return c, nil
}

// Create inserts a community. Status defaults to active and is stored lowercase.
func (s *Store) Create(ctx context.Context, c models.Community) (models.Community, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = strings.TrimSpace(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.DescriptionCI = text.Fold(c.Description)
	c.Location.CityCI = text.Fold(c.Location.City)
	c.Status = strings.ToLower(strings.TrimSpace(c.Status))
	if c.Status == "" {
		c.Status = models.CommunityActive
	}
	if c.Highlights == nil {
		c.Highlights = []string{}
	}
	if c.AmenityIDs == nil {
		c.AmenityIDs = []primitive.ObjectID{}
	}
	c.MemberIDs = []primitive.ObjectID{}
	c.PendingRequestIDs = []primitive.ObjectID{}
	c.MemberCount = 0
	c.IsDeleted = false
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Community{}, err
	}
	return c, nil
}

// AddPendingRequest records requestID as awaiting review.
func (s *Store) AddPendingRequest(ctx context.Context, communityID, requestID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, communityID, bson.M{
		"$addToSet": bson.M{"pending_request_ids": requestID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemovePendingRequest drops requestID from the review queue.
func (s *Store) RemovePendingRequest(ctx context.Context, communityID, requestID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, communityID, bson.M{
		"$pull": bson.M{"pending_request_ids": requestID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// AddMember adds userID to the member list and clears requestID from the
// review queue. member_count is only incremented when userID was not already
// a member, so repeating the call is harmless.
func (s *Store) AddMember(ctx context.Context, communityID, userID, requestID primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": communityID, "member_ids": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"member_ids": userID},
			"$pull": bson.M{"pending_request_ids": requestID},
			"$inc":  bson.M{"member_count": 1},
			"$set":  bson.M{"updated_at": now},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.RemovePendingRequest(ctx, communityID, requestID)
	}
	return nil
}

// RemoveMember removes userID from the member list, decrementing member_count
// only when userID was a member.
func (s *Store) RemoveMember(ctx context.Context, communityID, userID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": communityID, "member_ids": userID},
		bson.M{
			"$pull": bson.M{"member_ids": userID},
			"$inc":  bson.M{"member_count": -1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// IsMember reports whether userID is in the community's member list.
func (s *Store) IsMember(ctx context.Context, communityID, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, live(bson.M{"_id": communityID, "member_ids": userID}), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
