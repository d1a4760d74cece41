// internal/app/features/marketplace/handler.go
package marketplace

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	communitystore "github.com/dalemusser/communityhub/internal/app/store/communities"
	listingstore "github.com/dalemusser/communityhub/internal/app/store/listings"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/authz"
	"github.com/dalemusser/communityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/app/system/urlparam"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves want/offer listings.
type Handler struct {
	Listings    *listingstore.Store
	Communities *communitystore.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Listings:    listingstore.New(db),
		Communities: communitystore.New(db),
		AuditLog:    al,
		Log:         logger,
	}
}

// List handles GET /communities/{id}/marketplace. Only approved listings are shown.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	communityID, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Community not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Listings.ListApproved(ctx, communityID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Listings fetched successfully", items)
}

type createRequest struct {
	Type        string   `json:"type" validate:"required,oneof=want offer"`
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Attachment  string   `json:"attachment" validate:"omitempty,url"`
}

// Create handles POST /communities/{id}/marketplace. The listing starts
// pending until an admin approves it.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	communityID, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Community not found"))
		return
	}
	var req createRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Communities.GetByID(ctx, communityID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apierr.NotFound("Community not found")
		}
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := authz.CommunityAccess(ctx, h.Communities, su, communityID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	l, err := h.Listings.Create(ctx, models.MarketplaceListing{
		Type:        req.Type,
		Title:       htmlsanitize.StripTags(req.Title),
		Description: htmlsanitize.StripTags(req.Description),
		Price:       req.Price,
		Attachment:  strings.TrimSpace(req.Attachment),
		CommunityID: communityID,
		UserID:      su.ID,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "Listing submitted for review", l)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected sold closed"`
}

// SetStatus handles PATCH /marketplace/{id}/status (Admin or SuperAdmin).
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}
	id, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Listing not found"))
		return
	}
	var req statusRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	l, err := h.Listings.SetStatus(ctx, id, req.Status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("Listing not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventListingModerated, su.ID, &l.UserID, &l.CommunityID, map[string]string{
		"listing_id": l.ID.Hex(),
		"status":     l.Status,
	})
	respond.OK(w, "Listing status updated successfully", l)
}

// MountRoutes registers the marketplace routes on the /api/v1/community router.
func (h *Handler) MountRoutes(r chi.Router, mw *auth.Middleware) {
	r.Get("/communities/{id}/marketplace", h.List)
	r.With(mw.RequireUser).Post("/communities/{id}/marketplace", h.Create)
	r.With(mw.RequireUser, auth.RequireAdmin).Patch("/marketplace/{id}/status", h.SetStatus)
}
