// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventRegistered             = "registered"
	EventOTPSent                = "otp_sent"
	EventOTPVerified            = "otp_verified"
	EventOTPFailed              = "otp_failed"
	EventLoginSuccess           = "login_success"
	EventLoginFailedUserMissing = "login_failed_user_not_found"
	EventLoginFailedInactive    = "login_failed_user_inactive"
	EventLoginFailedPassword    = "login_failed_wrong_password"
	EventLoginFailedRateLimit   = "login_failed_rate_limit"
	EventTokenRefreshFailed     = "token_refresh_failed"
	EventLogout                 = "logout"
	EventPasswordReset          = "password_reset"
)

// Admin event types
const (
	EventCommunityCreated    = "community_created"
	EventJoinRequestApproved = "join_request_approved"
	EventJoinRequestRejected = "join_request_rejected"
	EventListingModerated    = "listing_moderated"
	EventPulseModerated      = "pulse_moderated"
	EventEventCreated        = "event_created"
	EventAnnouncementCreated = "announcement_created"
	EventAmenityCreated      = "amenity_created"
)

// Event represents an audit event.
type Event struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Timestamp   time.Time           `bson:"timestamp"`
	CommunityID *primitive.ObjectID `bson:"community_id,omitempty"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`  // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"` // who performed the action, for admin events

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log inserts event, filling in ID and Timestamp when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (s *Store) find(ctx context.Context, filter bson.M, limit int64) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := make([]Event, 0)
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetByUser returns the most recent events affecting userID.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.find(ctx, bson.M{"user_id": userID}, limit)
}

// GetByType returns the most recent events of one type.
func (s *Store) GetByType(ctx context.Context, eventType string, limit int64) ([]Event, error) {
	return s.find(ctx, bson.M{"event_type": eventType}, limit)
}

// CountFailedLogins counts failed logins since the given time.
func (s *Store) CountFailedLogins(ctx context.Context, since time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"category":  CategoryAuth,
		"success":   false,
		"timestamp": bson.M{"$gte": since},
		"event_type": bson.M{"$in": []string{
			EventLoginFailedUserMissing,
			EventLoginFailedInactive,
			EventLoginFailedPassword,
			EventLoginFailedRateLimit,
		}},
	})
}
