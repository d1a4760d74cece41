// internal/domain/models/joinrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Join request statuses.
//
//	(none) -> Pending -> Approved | Rejected
//
// A soft-deleted request counts as (none) and is reactivated in place.
const (
	JoinPending  = "Pending"
	JoinApproved = "Approved"
	JoinRejected = "Rejected"
)

// JoinRequest is a user's request to join a community. At most one document
// exists per (user, community) pair, enforced by a unique index.
type JoinRequest struct {
	ID          primitive.ObjectID  `bson:"_id" json:"_id"`
	UserID      primitive.ObjectID  `bson:"user_id" json:"userId"`
	CommunityID primitive.ObjectID  `bson:"community_id" json:"communityId"`
	Message     string              `bson:"message" json:"message"`
	Status      string              `bson:"status" json:"status"`
	ReviewedBy  *primitive.ObjectID `bson:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time          `bson:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewNotes string              `bson:"review_notes" json:"reviewNotes,omitempty"`

	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// JoinRequestView is a JoinRequest with its community, requester and reviewer populated.
type JoinRequestView struct {
	JoinRequest `bson:",inline"`
	Community   *CommunitySummary `bson:"community,omitempty" json:"community,omitempty"`
	User        *UserSummary      `bson:"user,omitempty" json:"user,omitempty"`
	Reviewer    *UserSummary      `bson:"reviewer,omitempty" json:"reviewer,omitempty"`
}
