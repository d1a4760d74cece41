// internal/app/features/pulses/handler.go
package pulses

import (
	"context"
	"errors"
	"net/http"
	"strings"

	communitystore "github.com/dalemusser/communityhub/internal/app/store/communities"
	pulsestore "github.com/dalemusser/communityhub/internal/app/store/pulses"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
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

// Handler serves community pulse posts.
type Handler struct {
	Pulses      *pulsestore.Store
	Communities *communitystore.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Pulses:      pulsestore.New(db),
		Communities: communitystore.New(db),
		AuditLog:    al,
		Log:         logger,
	}
}

// List handles GET /communities/{id}/pulses. Only approved pulses are shown.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	communityID, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Community not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Pulses.ListApproved(ctx, communityID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Pulses fetched successfully", items)
}

type createRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Territory   string `json:"territory" validate:"max=100"`
	Attachment  string `json:"attachment" validate:"omitempty,url"`
}

// Create handles POST /communities/{id}/pulses. New pulses await moderation.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}
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

	p, err := h.Pulses.Create(ctx, models.Pulse{
		Title:       htmlsanitize.StripTags(req.Title),
		Description: htmlsanitize.StripTags(req.Description),
		Territory:   htmlsanitize.StripTags(req.Territory),
		Attachment:  strings.TrimSpace(req.Attachment),
		CommunityID: communityID,
		UserID:      su.ID,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "Pulse submitted for review", p)
}

type likeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// ToggleLike handles POST /pulses/{id}/like.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}
	id, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Pulse not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, liked, err := h.Pulses.ToggleLike(ctx, id, su.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("Pulse not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Pulse like updated", likeResult{Liked: liked, LikeCount: len(p.Likes)})
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// AddComment handles POST /pulses/{id}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}
	id, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Pulse not found"))
		return
	}
	var req commentRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	text := htmlsanitize.StripTags(req.Text)
	if text == "" {
		respond.Error(w, r, h.Log, apierr.Validation("Validation failed",
			apierr.FieldError{Field: "text", Message: "text is a required field"}))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Pulses.AddComment(ctx, id, su.ID, text)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("Pulse not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "Comment added successfully", p.Comments[len(p.Comments)-1])
}
