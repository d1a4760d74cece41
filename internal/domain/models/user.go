// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleUser       = "User"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "SuperAdmin"
)

// User lifecycle statuses. Only Active users may sign in.
const (
	UserPending  = "Pending"
	UserActive   = "Active"
	UserInactive = "Inactive"
	UserBlocked  = "Blocked"
)

// User is a registered resident or administrator.
//
// Email and mobile number are unique among users that are not soft-deleted.
// OTP and OTPExpiry are nil whenever no verification is outstanding.
type User struct {
	ID               primitive.ObjectID  `bson:"_id" json:"_id"`
	Name             string              `bson:"name" json:"name"`
	Email            string              `bson:"email" json:"email"`
	EmailCI          string              `bson:"email_ci" json:"-"` // lowercase, trimmed
	MobileNumber     string              `bson:"mobile_number" json:"mobileNumber"`
	CountryCode      string              `bson:"country_code" json:"countryCode"`
	PasswordHash     string              `bson:"password_hash" json:"-"`
	Role             string              `bson:"role" json:"role"`
	Status           string              `bson:"status" json:"status"`
	CommunityID      *primitive.ObjectID `bson:"community_id,omitempty" json:"communityId,omitempty"`
	IsEmailVerified  bool                `bson:"is_email_verified" json:"isEmailVerified"`
	IsMobileVerified bool                `bson:"is_mobile_verified" json:"isMobileVerified"`

	OTP       *string    `bson:"otp" json:"-"`
	OTPExpiry *time.Time `bson:"otp_expiry" json:"-"`

	LastLogin *time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`

	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the account may authenticate.
func (u User) IsActive() bool { return u.Status == UserActive }

// IsAdmin reports whether the user holds an administrative role.
func (u User) IsAdmin() bool { return IsAdminRole(u.Role) }

// IsAdminRole reports whether role grants administrative access.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// UserSummary is the public projection of a user embedded in other responses.
type UserSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email,omitempty" json:"email,omitempty"`
}
