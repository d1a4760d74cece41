// internal/app/features/amenities/handler.go
package amenities

import (
	"context"
	"errors"
	"net/http"
	"strings"

	amenitystore "github.com/dalemusser/communityhub/internal/app/store/amenities"
	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Store    *amenitystore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: amenitystore.New(db), AuditLog: al, Log: logger}
}

// List handles GET /amenities.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Store.ListActive(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Amenities fetched successfully", items)
}

type createRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Icon        string `json:"icon" validate:"max=200"`
	Category    string `json:"category" validate:"required,max=60"`
}

// Create handles POST /amenities (Admin or SuperAdmin).
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Store.Create(ctx, models.Amenity{
		Name:        htmlsanitize.StripTags(req.Name),
		Description: htmlsanitize.StripTags(req.Description),
		Icon:        strings.TrimSpace(req.Icon),
		Category:    htmlsanitize.StripTags(req.Category),
	})
	if errors.Is(err, amenitystore.ErrDuplicateName) {
		respond.Error(w, r, h.Log, apierr.Conflict("Amenity with this name already exists"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventAmenityCreated, su.ID, nil, nil, map[string]string{"name": a.Name})

	respond.Created(w, "Amenity created successfully", a)
}

// MountRoutes registers the amenity routes on the /api/v1/community router.
func (h *Handler) MountRoutes(r chi.Router, mw *auth.Middleware) {
	r.Get("/amenities", h.List)
	r.With(mw.RequireUser, auth.RequireAdmin).Post("/amenities", h.Create)
}
