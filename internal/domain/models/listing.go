// internal/domain/models/listing.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing types.
const (
	ListingWant  = "want"
	ListingOffer = "offer"
)

// Listing statuses. New listings start pending and are moderated by admins.
const (
	ListingPending  = "pending"
	ListingApproved = "approved"
	ListingRejected = "rejected"
	ListingSold     = "sold"
	ListingClosed   = "closed"
)

// MarketplaceListing is a want/offer post scoped to one community.
type MarketplaceListing struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Type        string             `bson:"type" json:"type"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Price       *float64           `bson:"price,omitempty" json:"price,omitempty"`
	Attachment  string             `bson:"attachment,omitempty" json:"attachment,omitempty"`
	CommunityID primitive.ObjectID `bson:"community_id" json:"communityId"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	Status      string             `bson:"status" json:"status"`

	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}
