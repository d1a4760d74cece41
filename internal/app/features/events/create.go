// internal/app/features/events/create.go
package events

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type createRequest struct {
	Title           string    `json:"title" validate:"required,max=200"`
	Description     string    `json:"description" validate:"max=5000"`
	CommunityID     string    `json:"communityId" validate:"required,objectid"`
	EventDate       time.Time `json:"eventDate" validate:"required"`
	StartTime       string    `json:"startTime" validate:"max=20"`
	EndTime         string    `json:"endTime" validate:"max=20"`
	Location        string    `json:"location" validate:"max=300"`
	Images          []string  `json:"images" validate:"max=20,dive,url"`
	MaxParticipants *int      `json:"maxParticipants" validate:"omitempty,gte=1"`
	EventType       string    `json:"eventType" validate:"max=60"`
	Status          string    `json:"status" validate:"omitempty,oneof=Upcoming Ongoing Completed Cancelled"`
}

// Create handles POST /events (Admin or SuperAdmin).
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

	ev, err := h.Events.Create(ctx, models.Event{
		Title:           htmlsanitize.StripTags(req.Title),
		Description:     htmlsanitize.Sanitize(req.Description),
		CommunityID:     communityID,
		EventDate:       req.EventDate.UTC(),
		StartTime:       strings.TrimSpace(req.StartTime),
		EndTime:         strings.TrimSpace(req.EndTime),
		Location:        htmlsanitize.StripTags(req.Location),
		Images:          req.Images,
		MaxParticipants: req.MaxParticipants,
		EventType:       strings.TrimSpace(req.EventType),
		Status:          req.Status,
		CreatedBy:       &su.ID,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventEventCreated, su.ID, nil, &communityID, map[string]string{
		"event_id": ev.ID.Hex(),
		"title":    ev.Title,
	})

	respond.Created(w, "Event created successfully", ev)
}
