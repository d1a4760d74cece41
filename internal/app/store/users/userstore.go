// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/normalize"
	"github.com/dalemusser/communityhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when a live user already has the email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateMobile is returned when a live user already has the mobile number.
	ErrDuplicateMobile = errors.New("a user with this mobile number already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func live(filter bson.M) bson.M {
	filter["is_deleted"] = false
	return filter
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, live(filter)).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a non-deleted user. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a non-deleted user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))})
}

// GetByMobile looks up a non-deleted user by mobile number.
func (s *Store) GetByMobile(ctx context.Context, mobile string) (models.User, error) {
	return s.findOne(ctx, bson.M{"mobile_number": normalize.Mobile(mobile)})
}

// FindConflict returns a live user holding either email or mobile, or
// mongo.ErrNoDocuments when both are free.
func (s *Store) FindConflict(ctx context.Context, email, mobile string) (models.User, error) {
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email_ci": text.Fold(normalize.Email(email))},
		bson.M{"mobile_number": normalize.Mobile(mobile)},
	}})
}

// Create inserts a new user after normalizing fields. Role defaults to User
// and status to Pending. A duplicate email or mobile among live users,
// including one inserted concurrently, returns ErrDuplicateEmail or
// ErrDuplicateMobile.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.Email = normalize.Email(u.Email)
	u.EmailCI = text.Fold(u.Email)
	u.MobileNumber = normalize.Mobile(u.MobileNumber)
	u.CountryCode = normalize.CountryCode(u.CountryCode)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.UserPending
	}
	u.IsDeleted = false
	u.DeletedAt = nil
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			if strings.Contains(err.Error(), "mobile_number") {
				return models.User{}, ErrDuplicateMobile
			}
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, live(bson.M{"_id": id}), bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetOTP stores a fresh one-time code, replacing any previous one.
func (s *Store) SetOTP(ctx context.Context, id primitive.ObjectID, otp string, expiry time.Time) error {
	return s.set(ctx, id, bson.M{"otp": otp, "otp_expiry": expiry.UTC()})
}

// VerifyEmail activates the account after email OTP verification and clears the code.
func (s *Store) VerifyEmail(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return s.set(ctx, id, bson.M{
		"status":            models.UserActive,
		"is_email_verified": true,
		"otp":               nil,
		"otp_expiry":        nil,
		"last_login":        now.UTC(),
	})
}

// VerifyMobile activates the account after phone OTP verification and clears the code.
func (s *Store) VerifyMobile(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return s.set(ctx, id, bson.M{
		"status":             models.UserActive,
		"is_mobile_verified": true,
		"otp":                nil,
		"otp_expiry":         nil,
		"last_login":         now.UTC(),
	})
}

// TouchLogin records a successful sign-in.
func (s *Store) TouchLogin(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return s.set(ctx, id, bson.M{"last_login": now.UTC()})
}

// SetPassword stores a new bcrypt hash and clears any outstanding code.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.set(ctx, id, bson.M{"password_hash": hash, "otp": nil, "otp_expiry": nil})
}

// SetStatus changes the lifecycle status (e.g. Blocked, Inactive).
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	return s.set(ctx, id, bson.M{"status": status})
}

// Promote grants role and activates the account.
func (s *Store) Promote(ctx context.Context, id primitive.ObjectID, role string) error {
	return s.set(ctx, id, bson.M{"role": role, "status": models.UserActive})
}

// SoftDelete hides the user from every lookup and frees the email and mobile
// number for reuse.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	return s.set(ctx, id, bson.M{"is_deleted": true, "deleted_at": now})
}

// Summaries returns {id, name, email} for the live users among ids, sorted by name.
func (s *Store) Summaries(ctx context.Context, ids []primitive.ObjectID) ([]models.UserSummary, error) {
	out := make([]models.UserSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().
		SetProjection(bson.M{"name": 1, "email": 1}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, live(bson.M{"_id": bson.M{"$in": ids}}), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearExpiredOTPs removes one-time codes whose expiry has passed and reports
// how many users were updated. otp_expiry is kept so a late verification
// still reports the code as expired rather than invalid.
func (s *Store) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"otp": bson.M{"$ne": nil}, "otp_expiry": bson.M{"$lt": now.UTC()}},
		bson.M{"$set": bson.M{"otp": nil}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
