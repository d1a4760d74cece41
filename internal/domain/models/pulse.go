// internal/domain/models/pulse.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pulse statuses.
const (
	PulsePending  = "pending"
	PulseApproved = "approved"
	PulseRejected = "rejected"
)

type PulseComment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Pulse is a short social post inside a community.
type Pulse struct {
	ID          primitive.ObjectID   `bson:"_id" json:"_id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Territory   string               `bson:"territory,omitempty" json:"territory,omitempty"`
	CommunityID primitive.ObjectID   `bson:"community_id" json:"communityId"`
	UserID      primitive.ObjectID   `bson:"user_id" json:"userId"`
	Attachment  string               `bson:"attachment,omitempty" json:"attachment,omitempty"`
	Status      string               `bson:"status" json:"status"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments    []PulseComment       `bson:"comments" json:"comments"`

	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}
