// internal/app/features/announcements/handler.go
package announcements

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	announcementstore "github.com/dalemusser/communityhub/internal/app/store/announcements"
	communitystore "github.com/dalemusser/communityhub/internal/app/store/communities"
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

const (
	defaultRecentLimit = 6
	maxRecentLimit     = 50
)

// Handler owns the announcement feed handlers.
type Handler struct {
	Store       *announcementstore.Store
	Communities *communitystore.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
	Now         func() time.Time
}

// NewHandler constructs an announcements Handler.
func NewHandler(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:       announcementstore.New(db),
		Communities: communitystore.New(db),
		AuditLog:    al,
		Log:         logger,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// Recent handles GET /announcements/recent?limit.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(query.Get(r, "limit"))
	if err != nil || limit < 1 {
		limit = defaultRecentLimit
	}
	limit = min(limit, maxRecentLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Store.Recent(ctx, h.Now(), limit)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Recent announcements fetched successfully", items)
}

// ForCommunity handles GET /communities/{id}/announcements.
func (h *Handler) ForCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Community not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Store.ListForCommunity(ctx, communityID, h.Now())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Announcements fetched successfully", items)
}

type createRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Content     string     `json:"content" validate:"required,max=10000"`
	CommunityID string     `json:"communityId" validate:"required,objectid"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=Low Medium High Urgent"`
	Category    string     `json:"category" validate:"max=60"`
	PublishDate *time.Time `json:"publishDate"`
	ExpiryDate  *time.Time `json:"expiryDate"`
	IsPinned    bool       `json:"isPinned"`
	Status      string     `json:"status" validate:"omitempty,oneof=Draft Published Archived"`
}

// Create handles POST /announcements (Admin or SuperAdmin).
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

	a := models.Announcement{
		Title:       htmlsanitize.StripTags(req.Title),
		Content:     htmlsanitize.Sanitize(req.Content),
		CommunityID: communityID,
		Priority:    req.Priority,
		Category:    strings.TrimSpace(req.Category),
		IsPinned:    req.IsPinned,
		Status:      req.Status,
		CreatedBy:   &su.ID,
	}
	if req.PublishDate != nil {
		a.PublishDate = req.PublishDate.UTC()
	}
	if req.ExpiryDate != nil {
		exp := req.ExpiryDate.UTC()
		if !a.PublishDate.IsZero() && exp.Before(a.PublishDate) {
			respond.Error(w, r, h.Log, apierr.Validation("Validation failed",
				apierr.FieldError{Field: "expiryDate", Message: "expiryDate must not be before publishDate"}))
			return
		}
		a.ExpiryDate = &exp
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

	a, err := h.Store.Create(ctx, a)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventAnnouncementCreated, su.ID, nil, &communityID, map[string]string{
		"announcement_id": a.ID.Hex(),
		"title":           a.Title,
	})

	respond.Created(w, "Announcement created successfully", a)
}
