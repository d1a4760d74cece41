// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	communitystore "github.com/dalemusser/communityhub/internal/app/store/communities"
	eventstore "github.com/dalemusser/communityhub/internal/app/store/events"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/authz"
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

type Handler struct {
	Events      *eventstore.Store
	Communities *communitystore.Store
	AuditLog    *auditlog.Logger
	Log         *zap.Logger
	Now         func() time.Time
}

func NewHandler(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Events:      eventstore.New(db),
		Communities: communitystore.New(db),
		AuditLog:    al,
		Log:         logger,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// storeErrors maps eventstore sentinels onto client errors.
var storeErrors = map[error]string{
	eventstore.ErrAlreadyRegistered:  "You are already registered for this event",
	eventstore.ErrEventFull:          "Event is full",
	eventstore.ErrRegistrationClosed: "Event is not open for registration",
	eventstore.ErrNotRegistered:      "You are not registered for this event",
	eventstore.ErrAttendanceClosed:   "Attendance can only be marked while the event is ongoing",
	eventstore.ErrAlreadyAttended:    "Attendance already marked",
}

func clientError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apierr.NotFound("Event not found")
	}
	for sentinel, msg := range storeErrors {
		if errors.Is(err, sentinel) {
			return apierr.Conflict(msg)
		}
	}
	return err
}

// participation is the caller's own standing on an event plus head counts.
// Other participants' ids are never returned.
type participation struct {
	EventID          string `json:"eventId"`
	Registered       bool   `json:"registered"`
	Attended         bool   `json:"attended"`
	ParticipantCount int    `json:"participantCount"`
	AttendedCount    int    `json:"attendedCount"`
	MaxParticipants  *int   `json:"maxParticipants,omitempty"`
}

func participationOf(ev models.Event, userID primitive.ObjectID) participation {
	return participation{
		EventID:          ev.ID.Hex(),
		Registered:       slices.Contains(ev.RegisteredParticipants, userID),
		Attended:         slices.Contains(ev.AttendedParticipants, userID),
		ParticipantCount: len(ev.RegisteredParticipants),
		AttendedCount:    len(ev.AttendedParticipants),
		MaxParticipants:  ev.MaxParticipants,
	}
}

// Recent handles GET /events/recent?limit.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(query.Get(r, "limit"))
	if err != nil || limit < 1 {
		limit = defaultRecentLimit
	}
	limit = min(limit, maxRecentLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Events.Recent(ctx, h.Now(), limit)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Recent events fetched successfully", items)
}

// ForCommunity handles GET /communities/{id}/events.
func (h *Handler) ForCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Community not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Events.ListForCommunity(ctx, communityID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Events fetched successfully", items)
}

// Register handles POST /events/{id}/register. The caller must be a member
// of the event's community or an admin.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	id, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Event not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, clientError(err))
		return
	}
	if err := authz.CommunityAccess(ctx, h.Communities, su, ev.CommunityID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ev, err = h.Events.Register(ctx, id, su.ID)
	if err != nil {
		respond.Error(w, r, h.Log, clientError(err))
		return
	}
	respond.OK(w, "Registered for event successfully", participationOf(ev, su.ID))
}

// MarkAttendance handles POST /events/{id}/attendance for the calling user.
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}
	id, ok := urlparam.ObjectID(r, "id")
	if !ok {
		respond.Error(w, r, h.Log, apierr.NotFound("Event not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.Events.MarkAttendance(ctx, id, su.ID)
	if err != nil {
		respond.Error(w, r, h.Log, clientError(err))
		return
	}
	respond.OK(w, "Attendance marked successfully", participationOf(ev, su.ID))
}
