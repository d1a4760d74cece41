// internal/app/features/communities/create.go
package communities

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/normalize"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type locationInput struct {
	Address     string              `json:"address" validate:"max=300"`
	City        string              `json:"city" validate:"required,max=100"`
	State       string              `json:"state" validate:"max=100"`
	ZipCode     string              `json:"zipCode" validate:"max=20"`
	Country     string              `json:"country" validate:"max=100"`
	Coordinates *models.Coordinates `json:"coordinates"`
}

type contactInput struct {
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=20"`
	Website string `json:"website" validate:"omitempty,url"`
}

type createRequest struct {
	Name             string        `json:"name" validate:"required,min=2,max=120"`
	Description      string        `json:"description" validate:"max=5000"`
	ShortDescription string        `json:"shortDescription" validate:"max=300"`
	BannerImage      string        `json:"bannerImage" validate:"omitempty,url"`
	Logo             string        `json:"logo" validate:"omitempty,url"`
	Location         locationInput `json:"location"`
	Category         string        `json:"category" validate:"max=60"`
	Status           string        `json:"status" validate:"omitempty,oneof=active inactive pending Active Inactive Pending"`
	IsFeatured       bool          `json:"isFeatured"`
	Highlights       []string      `json:"highlights" validate:"max=20,dive,max=200"`
	Amenities        []string      `json:"amenities" validate:"max=100,dive,objectid"`
	TotalUnits       int           `json:"totalUnits" validate:"gte=0"`
	OccupiedUnits    int           `json:"occupiedUnits" validate:"gte=0,ltefield=TotalUnits"`
	EstablishedYear  int           `json:"establishedYear" validate:"omitempty,gte=1800,lte=2100"`
	ContactInfo      contactInput  `json:"contactInfo"`
}

// Create handles POST /communities (Admin or SuperAdmin).
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

	amenities := make([]primitive.ObjectID, 0, len(req.Amenities))
	for _, hex := range req.Amenities {
		id, _ := primitive.ObjectIDFromHex(hex) // validated above
		amenities = append(amenities, id)
	}
	highlights := make([]string, 0, len(req.Highlights))
	for _, s := range req.Highlights {
		if s = htmlsanitize.StripTags(s); s != "" {
			highlights = append(highlights, s)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Communities.Create(ctx, models.Community{
		Name:             htmlsanitize.StripTags(req.Name),
		Description:      htmlsanitize.Sanitize(req.Description),
		ShortDescription: htmlsanitize.StripTags(req.ShortDescription),
		BannerImage:      req.BannerImage,
		Logo:             req.Logo,
		Location: models.Location{
			Address:     strings.TrimSpace(req.Location.Address),
			City:        strings.TrimSpace(req.Location.City),
			State:       strings.TrimSpace(req.Location.State),
			ZipCode:     strings.TrimSpace(req.Location.ZipCode),
			Country:     strings.TrimSpace(req.Location.Country),
			Coordinates: req.Location.Coordinates,
		},
		Category:        strings.TrimSpace(req.Category),
		Status:          normalize.Status(req.Status),
		IsFeatured:      req.IsFeatured,
		Highlights:      highlights,
		AmenityIDs:      amenities,
		TotalUnits:      req.TotalUnits,
		OccupiedUnits:   req.OccupiedUnits,
		EstablishedYear: req.EstablishedYear,
		ContactInfo: models.ContactInfo{
			Email:   normalize.Email(req.ContactInfo.Email),
			Phone:   normalize.Mobile(req.ContactInfo.Phone),
			Website: req.ContactInfo.Website,
		},
		CreatedBy: &su.ID,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.AdminAction(ctx, r, audit.EventCommunityCreated, su.ID, nil, &c.ID, map[string]string{"name": c.Name})

	respond.Created(w, "Community created successfully", c)
}
