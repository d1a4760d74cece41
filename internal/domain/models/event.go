// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses.
const (
	EventUpcoming  = "Upcoming"
	EventOngoing   = "Ongoing"
	EventCompleted = "Completed"
	EventCancelled = "Cancelled"
)

// Event is a community event. MaxParticipants nil means unlimited.
type Event struct {
	ID                     primitive.ObjectID   `bson:"_id" json:"_id"`
	Title                  string               `bson:"title" json:"title"`
	Description            string               `bson:"description" json:"description"`
	CommunityID            primitive.ObjectID   `bson:"community_id" json:"communityId"`
	EventDate              time.Time            `bson:"event_date" json:"eventDate"`
	StartTime              string               `bson:"start_time,omitempty" json:"startTime,omitempty"`
	EndTime                string               `bson:"end_time,omitempty" json:"endTime,omitempty"`
	Location               string               `bson:"location,omitempty" json:"location,omitempty"`
	Images                 []string             `bson:"images" json:"images"`
	MaxParticipants        *int                 `bson:"max_participants" json:"maxParticipants,omitempty"`
	RegisteredParticipants []primitive.ObjectID `bson:"registered_participants" json:"registeredParticipants"`
	AttendedParticipants   []primitive.ObjectID `bson:"attended_participants" json:"attendedParticipants"`
	EventType              string               `bson:"event_type,omitempty" json:"eventType,omitempty"`
	Status                 string               `bson:"status" json:"status"`
	CreatedBy              *primitive.ObjectID  `bson:"created_by,omitempty" json:"createdBy,omitempty"`

	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// EventView is an Event with its community populated.
type EventView struct {
	Event     `bson:",inline"`
	Community *CommunitySummary `bson:"community,omitempty" json:"community,omitempty"`
}
