// internal/app/features/joinrequests/review.go
package joinrequests

import (
	"errors"
	"net/http"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	joinrequeststore "github.com/dalemusser/communityhub/internal/app/store/joinrequests"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/app/system/urlparam"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type reviewRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"reviewNotes" validate:"max=1000"`
}

// Review handles PATCH /join-requests/{id}/review (Admin or SuperAdmin).
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}
	id, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Join request not found"))
		return
	}
	var req reviewRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	status, ok := reviewStatus(req.Status, false)
	if !ok || status == models.JoinPending {
		respond.Error(w, r, h.Log, apierr.Validation("Validation failed",
			apierr.FieldError{Field: "status", Message: "status must be Approved or Rejected"}))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "review join request")
	defer cancel()

	jr, err := h.Requests.Review(ctx, id, su.ID, status, htmlsanitize.StripTags(req.Notes))
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, r, h.Log, apierr.NotFound("Join request not found"))
		return
	case errors.Is(err, joinrequeststore.ErrNotPending):
		respond.Error(w, r, h.Log, apierr.Conflict("Join request has already been reviewed"))
		return
	case err != nil:
		respond.Error(w, r, h.Log, err)
		return
	}

	eventType := audit.EventJoinRequestRejected
	if status == models.JoinApproved {
		eventType = audit.EventJoinRequestApproved
		err = h.Communities.AddMember(ctx, jr.CommunityID, jr.UserID, jr.ID)
	} else {
		err = h.Communities.RemovePendingRequest(ctx, jr.CommunityID, jr.ID)
	}
	if err != nil {
		h.Log.Error("failed to update community membership after review",
			zap.String("request_id", jr.ID.Hex()),
			zap.String("status", status),
			zap.Error(err))
	}

	h.AuditLog.AdminAction(ctx, r, eventType, su.ID, &jr.UserID, &jr.CommunityID, map[string]string{
		"request_id": jr.ID.Hex(),
	})
	respond.OK(w, "Join request reviewed successfully", jr)
}

// Withdraw handles DELETE /join-requests/{id}. Only the requester may
// withdraw; an approved request also ends the membership.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}
	id, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Join request not found"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "withdraw join request")
	defer cancel()

	jr, err := h.Requests.Withdraw(ctx, id, su.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("Join request not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	if jr.Status == models.JoinApproved {
		err = h.Communities.RemoveMember(ctx, jr.CommunityID, jr.UserID)
	} else {
		err = h.Communities.RemovePendingRequest(ctx, jr.CommunityID, jr.ID)
	}
	if err != nil {
		h.Log.Warn("failed to update community after withdrawal",
			zap.String("request_id", jr.ID.Hex()),
			zap.Error(err))
	}

	respond.OK(w, "Join request withdrawn successfully", nil)
}
