package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultPassword is the plaintext password of every fixture user.
const DefaultPassword = "Secret123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

var mobileSeq atomic.Int64

// NextMobile returns a unique 10-digit mobile number.
func NextMobile() string {
	return fmt.Sprintf("9%09d", mobileSeq.Add(1))
}

var passwordHash = func() string {
	h, err := authutil.HashPassword(DefaultPassword)
	if err != nil {
		panic(err)
	}
	return h
}()

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateUser creates a user with DefaultPassword and the given role and status.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role, status string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:              primitive.NewObjectID(),
		Name:            name,
		Email:           email,
		EmailCI:         text.Fold(email),
		MobileNumber:    NextMobile(),
		CountryCode:     "+91",
		PasswordHash:    passwordHash,
		Role:            role,
		Status:          status,
		IsEmailVerified: status == models.UserActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateActiveUser creates an Active resident.
func (f *Fixtures) CreateActiveUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleUser, models.UserActive)
}

// CreateAdmin creates an Active admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin, models.UserActive)
}

// CommunityOpts overrides fixture community fields.
type CommunityOpts struct {
	Description string
	City        string
	Status      string
	Featured    bool
	CreatedAt   time.Time
	AmenityIDs  []primitive.ObjectID
	CreatedBy   *primitive.ObjectID
}

// CreateCommunity creates a community. Zero opts give an active, unfeatured
// community in "Test City".
func (f *Fixtures) CreateCommunity(ctx context.Context, name string, opts CommunityOpts) models.Community {
	f.t.Helper()

	now := time.Now().UTC()
	if opts.City == "" {
		opts.City = "Test City"
	}
	if opts.Status == "" {
		opts.Status = models.CommunityActive
	}
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = now
	}
	if opts.AmenityIDs == nil {
		opts.AmenityIDs = []primitive.ObjectID{}
	}
	c := models.Community{
		ID:                primitive.NewObjectID(),
		Name:              name,
		NameCI:            text.Fold(name),
		Description:       opts.Description,
		DescriptionCI:     text.Fold(opts.Description),
		Location:          models.Location{City: opts.City, CityCI: text.Fold(opts.City)},
		Status:            opts.Status,
		IsFeatured:        opts.Featured,
		Highlights:        []string{},
		AmenityIDs:        opts.AmenityIDs,
		MemberIDs:         []primitive.ObjectID{},
		PendingRequestIDs: []primitive.ObjectID{},
		CreatedBy:         opts.CreatedBy,
		CreatedAt:         opts.CreatedAt,
		UpdatedAt:         opts.CreatedAt,
	}
	f.insert(ctx, "communities", c)
	return c
}

// CreateEvent creates an event in communityID.
func (f *Fixtures) CreateEvent(ctx context.Context, communityID primitive.ObjectID, title, status string, date time.Time, maxParticipants *int) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:                     primitive.NewObjectID(),
		Title:                  title,
		CommunityID:            communityID,
		EventDate:              date,
		Images:                 []string{},
		MaxParticipants:        maxParticipants,
		RegisteredParticipants: []primitive.ObjectID{},
		AttendedParticipants:   []primitive.ObjectID{},
		Status:                 status,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	f.insert(ctx, "events", e)
	return e
}

// CreateAnnouncement creates an announcement in communityID.
func (f *Fixtures) CreateAnnouncement(ctx context.Context, communityID primitive.ObjectID, title, status string, publish time.Time, expiry *time.Time, pinned bool) models.Announcement {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Announcement{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Content:     title + " content",
		CommunityID: communityID,
		PublishDate: publish,
		ExpiryDate:  expiry,
		IsPinned:    pinned,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "announcements", a)
	return a
}

// CreateAmenity creates an amenity.
func (f *Fixtures) CreateAmenity(ctx context.Context, name, category string, active bool) models.Amenity {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Amenity{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Category:  category,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "amenities", a)
	return a
}

// AddMember marks userID as an approved member of communityID, writing both
// the join request and the community membership.
func (f *Fixtures) AddMember(ctx context.Context, communityID, userID primitive.ObjectID) models.JoinRequest {
	f.t.Helper()

	now := time.Now().UTC()
	jr := models.JoinRequest{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		CommunityID: communityID,
		Status:      models.JoinApproved,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "community_join_requests", jr)
	_, err := f.db.Collection("communities").UpdateByID(ctx, communityID, map[string]any{
		"$addToSet": map[string]any{"member_ids": userID},
		"$inc":      map[string]any{"member_count": 1},
	})
	if err != nil {
		f.t.Fatalf("failed to add member: %v", err)
	}
	return jr
}
