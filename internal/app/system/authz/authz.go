// internal/app/system/authz/authz.go
package authz

import (
	"context"

	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipChecker reports whether a user belongs to a community.
type MembershipChecker interface {
	IsMember(ctx context.Context, communityID, userID primitive.ObjectID) (bool, error)
}

// CommunityAccess returns nil when u may act inside communityID: admins and
// superadmins always may, everyone else must be an approved member.
// Otherwise it returns a 401 or 403 *apierr.Error, or the lookup error.
func CommunityAccess(ctx context.Context, m MembershipChecker, u *auth.SessionUser, communityID primitive.ObjectID) error {
	if u == nil {
		return apierr.Unauthenticated("Access token required")
	}
	if u.IsAdmin() {
		return nil
	}
	ok, err := m.IsMember(ctx, communityID, u.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.Forbidden("You must be a member of this community")
	}
	return nil
}

