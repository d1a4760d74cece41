// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement statuses.
const (
	AnnouncementDraft     = "Draft"
	AnnouncementPublished = "Published"
	AnnouncementArchived  = "Archived"
)

// Announcement is visible once Published and publish_date has passed, until
// expiry_date (nil never expires).
type Announcement struct {
	ID          primitive.ObjectID  `bson:"_id" json:"_id"`
	Title       string              `bson:"title" json:"title"`
	Content     string              `bson:"content" json:"content"`
	CommunityID primitive.ObjectID  `bson:"community_id" json:"communityId"`
	Priority    string              `bson:"priority,omitempty" json:"priority,omitempty"`
	Category    string              `bson:"category,omitempty" json:"category,omitempty"`
	PublishDate time.Time           `bson:"publish_date" json:"publishDate"`
	ExpiryDate  *time.Time          `bson:"expiry_date" json:"expiryDate,omitempty"`
	IsPinned    bool                `bson:"is_pinned" json:"isPinned"`
	Status      string              `bson:"status" json:"status"`
	CreatedBy   *primitive.ObjectID `bson:"created_by,omitempty" json:"createdBy,omitempty"`

	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

type AnnouncementView struct {
	Announcement `bson:",inline"`
	Community    *CommunitySummary `bson:"community,omitempty" json:"community,omitempty"`
}
