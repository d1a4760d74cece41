// internal/app/features/joinrequests/handler.go
package joinrequests

import (
	"context"
	"errors"
	"net/http"

	communitystore "github.com/dalemusser/communityhub/internal/app/store/communities"
	joinrequeststore "github.com/dalemusser/communityhub/internal/app/store/joinrequests"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/app/system/urlparam"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the join-request workflow.
type Handler struct {
	Requests    *joinrequeststore.Store
	Communities *communitystore.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Requests:    joinrequeststore.New(db),
		Communities: communitystore.New(db),
		AuditLog:    al,
		Log:         logger,
	}
}

type createRequest struct {
	CommunityID string `json:"communityId" validate:"required,objectid"`
	Message     string `json:"message" validate:"max=1000"`
}

type createResult struct {
	JoinRequest models.JoinRequest `json:"joinRequest"`
}

// Create handles POST /join-requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}
	var req createRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	communityID, _ := primitive.ObjectIDFromHex(req.CommunityID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Communities.GetByID(ctx, communityID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apierr.NotFound("Community not found")
		}
		respond.Error(w, r, h.Log, err)
		return
	}

	jr, err := h.Requests.Create(ctx, su.ID, communityID, htmlsanitize.StripTags(req.Message))
	if errors.Is(err, joinrequeststore.ErrAlreadyRequested) {
		respond.Error(w, r, h.Log, apierr.Conflict("You have already requested to join this community"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	if err := h.Communities.AddPendingRequest(ctx, communityID, jr.ID); err != nil {
		// pending_request_ids is denormalized; the request document is authoritative.
		h.Log.Warn("failed to record pending join request",
			zap.String("community_id", communityID.Hex()),
			zap.String("request_id", jr.ID.Hex()),
			zap.Error(err))
	}

	respond.Created(w, "Join request submitted successfully", createResult{JoinRequest: jr})
}

type listResult struct {
	Requests []models.JoinRequestView `json:"requests"`
}

// Mine handles GET /join-requests/user.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Requests.ListForUser(ctx, su.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Join requests fetched successfully", listResult{Requests: items})
}

// ForCommunity handles GET /communities/{id}/join-requests?status (Admin or SuperAdmin).
func (h *Handler) ForCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Community not found"))
		return
	}
	status, ok := reviewStatus(query.Get(r, "status"), true)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Validation("Invalid status filter"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Requests.ListForCommunity(ctx, communityID, status)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Join requests fetched successfully", listResult{Requests: items})
}

// reviewStatus maps a client-supplied status onto the stored casing.
// An empty value is accepted only when allowEmpty is set.
func reviewStatus(s string, allowEmpty bool) (string, bool) {
	switch s {
	case "":
		return "", allowEmpty
	case models.JoinPending, "pending":
		return models.JoinPending, true
	case models.JoinApproved, "approved":
		return models.JoinApproved, true
	case models.JoinRejected, "rejected":
		return models.JoinRejected, true
	}
	return "", false
}
