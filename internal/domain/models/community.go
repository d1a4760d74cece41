// internal/domain/models/community.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community statuses. Stored lowercase; older documents may carry other
// casings, so status filters always match case-insensitively.
const (
	CommunityActive   = "active"
	CommunityInactive = "inactive"
	CommunityPending  = "pending"
)

type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

type Location struct {
	Address     string       `bson:"address,omitempty" json:"address,omitempty"`
	City        string       `bson:"city" json:"city"`
	CityCI      string       `bson:"city_ci" json:"-"`
	State       string       `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode     string       `bson:"zip_code,omitempty" json:"zipCode,omitempty"`
	Country     string       `bson:"country,omitempty" json:"country,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

type ContactInfo struct {
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Website string `bson:"website,omitempty" json:"website,omitempty"`
}

// Community is a residential community in the directory.
// MemberCount mirrors len(MemberIDs) and is maintained by the join-request workflow.
type Community struct {
	ID                primitive.ObjectID   `bson:"_id" json:"_id"`
	Name              string               `bson:"name" json:"name"`
	NameCI            string               `bson:"name_ci" json:"-"`
	Description       string               `bson:"description" json:"description"`
	DescriptionCI     string               `bson:"description_ci" json:"-"`
	ShortDescription  string               `bson:"short_description,omitempty" json:"shortDescription,omitempty"`
	BannerImage       string               `bson:"banner_image,omitempty" json:"bannerImage,omitempty"`
	Logo              string               `bson:"logo,omitempty" json:"logo,omitempty"`
	Location          Location             `bson:"location" json:"location"`
	Category          string               `bson:"category,omitempty" json:"category,omitempty"`
	Status            string               `bson:"status" json:"status"`
	IsFeatured        bool                 `bson:"is_featured" json:"isFeatured"`
	Highlights        []string             `bson:"highlights" json:"highlights"`
	AmenityIDs        []primitive.ObjectID `bson:"amenity_ids" json:"amenities"`
	MemberIDs         []primitive.ObjectID `bson:"member_ids" json:"-"`
	PendingRequestIDs []primitive.ObjectID `bson:"pending_request_ids" json:"-"`
	MemberCount       int                  `bson:"member_count" json:"memberCount"`
	TotalUnits        int                  `bson:"total_units,omitempty" json:"totalUnits,omitempty"`
	OccupiedUnits     int                  `bson:"occupied_units,omitempty" json:"occupiedUnits,omitempty"`
	EstablishedYear   int                  `bson:"established_year,omitempty" json:"establishedYear,omitempty"`
	ContactInfo       ContactInfo          `bson:"contact_info" json:"contactInfo"`
	CreatedBy         *primitive.ObjectID  `bson:"created_by,omitempty" json:"createdBy,omitempty"`

	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// CommunityView is a Community with its amenities and creator populated.
// Amenities and Creator replace the raw id fields in JSON.
type CommunityView struct {
	Community `bson:",inline"`
	Amenities []AmenitySummary `bson:"amenities" json:"amenities"`
	Creator   *UserSummary     `bson:"creator,omitempty" json:"createdBy,omitempty"`
}

// CommunitySummary is the populated form embedded in events and join requests.
type CommunitySummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Logo     string             `bson:"logo,omitempty" json:"logo,omitempty"`
	Location Location           `bson:"location" json:"location"`
}
