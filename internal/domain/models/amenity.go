// internal/domain/models/amenity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Amenity struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // unique
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Category    string             `bson:"category" json:"category"`
	IsActive    bool               `bson:"is_active" json:"isActive"`

	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// AmenitySummary is the populated form embedded in community responses.
type AmenitySummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Icon     string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Category string             `bson:"category" json:"category"`
}
