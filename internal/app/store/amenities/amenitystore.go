// internal/app/store/amenities/amenitystore.go
package amenitystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateName = errors.New("an amenity with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("amenities")}
}

// Create inserts an active amenity. Names are unique case-insensitively.
func (s *Store) Create(ctx context.Context, a models.Amenity) (models.Amenity, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Name = strings.TrimSpace(a.Name)
	a.NameCI = text.Fold(a.Name)
	a.Category = strings.TrimSpace(a.Category)
	a.IsActive = true
	a.IsDeleted = false
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Amenity{}, ErrDuplicateName
		}
		return models.Amenity{}, err
	}
	return a, nil
}

// ListActive returns active, non-deleted amenities by category then name.
func (s *Store) ListActive(ctx context.Context) ([]models.Amenity, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"is_active": true, "is_deleted": false},
		options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Amenity, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
