// internal/app/features/communities/handler.go
package communities

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	communitystore "github.com/dalemusser/communityhub/internal/app/store/communities"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/normalize"
	"github.com/dalemusser/communityhub/internal/app/system/paging"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/app/system/urlparam"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultFeaturedLimit = 6
	maxFeaturedLimit     = 50
)

// Handler serves the community directory.
type Handler struct {
	Communities *communitystore.Store
	Users       *userstore.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger

	// DefaultStatus applies when a list request has no status parameter.
	// communitystore.StatusAll lists every non-deleted community.
	DefaultStatus string
}

func NewHandler(db *mongo.Database, al *auditlog.Logger, defaultStatus string, logger *zap.Logger) *Handler {
	if defaultStatus == "" {
		defaultStatus = models.CommunityActive
	}
	return &Handler{
		Communities:   communitystore.New(db),
		Users:         userstore.New(db),
		AuditLog:      al,
		Log:           logger,
		DefaultStatus: defaultStatus,
	}
}

type listResult struct {
	Communities []models.CommunityView `json:"communities"`
	Pagination  paging.Info        `json:"pagination"`
}

// List handles GET /communities?page&limit&search&status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r, paging.DefaultLimit)
	status := normalize.Status(query.Get(r, "status"))
	if status == "" {
		status = h.DefaultStatus
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, total, err := h.Communities.List(ctx, communitystore.ListFilter{
		Search: normalize.QueryParam(query.Get(r, "search")),
		Status: status,
		Page:   p,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Communities fetched successfully", listResult{
		Communities: items,
		Pagination:  paging.NewInfo(p, total),
	})
}

// Featured handles GET /communities/featured?limit.
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(query.Get(r, "limit"))
	if err != nil || limit < 1 {
		limit = defaultFeaturedLimit
	}
	limit = min(limit, maxFeaturedLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Communities.Featured(ctx, limit)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Featured communities fetched successfully", items)
}

func (h *Handler) load(ctx context.Context, r *http.Request) (models.Community, error) {
	id, ok := urlparam.ObjectID(r, "id")
	if !ok {
		return models.Community{}, apierr.NotFound("Community not found")
	}
	c, err := h.Communities.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Community{}, apierr.NotFound("Community not found")
	}
	return c, err
}

// Get handles GET /communities/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Community not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Communities.GetView(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("Community not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Community fetched successfully", c)
}

// Members handles GET /communities/{id}/members.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.load(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	members, err := h.Users.Summaries(ctx, c.MemberIDs)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Community members fetched successfully", members)
}
