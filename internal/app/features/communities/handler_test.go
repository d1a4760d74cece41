package communities_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/features/communities"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listResult struct {
	Communities []models.CommunityView `json:"communities"`
	Pagination  struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalPages int64 `json:"totalPages"`
	} `json:"pagination"`
}

func newHandler(t *testing.T) (*communities.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return communities.NewHandler(db, nil, "", zap.NewNop()), testutil.NewFixtures(t, db)
}

func get(h http.HandlerFunc, target string, params ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(params); i += 2 {
		req = testutil.WithChiURLParam(req, params[i], params[i+1])
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestList_DefaultsToActiveNewestFirst(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	fx.CreateCommunity(ctx, "Older", testutil.CommunityOpts{CreatedAt: base})
	fx.CreateCommunity(ctx, "Newer", testutil.CommunityOpts{CreatedAt: base.Add(time.Minute)})
	fx.CreateCommunity(ctx, "Closed", testutil.CommunityOpts{Status: models.CommunityInactive})

	rec := get(h.List, "/communities")
	testutil.AssertStatus(t, rec, http.StatusOK)

	var res listResult
	testutil.DecodeResult(t, rec, &res)
	if len(res.Communities) != 2 {
		t.Fatalf("expected 2 active communities, got %d", len(res.Communities))
	}
	if res.Communities[0].Name != "Newer" || res.Communities[1].Name != "Older" {
		t.Errorf("unexpected order: %s, %s", res.Communities[0].Name, res.Communities[1].Name)
	}
	if res.Pagination.Total != 2 || res.Pagination.Page != 1 || res.Pagination.Limit != 12 {
		t.Errorf("unexpected pagination: %+v", res.Pagination)
	}
}

func TestList_StatusAllAndSearch(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateCommunity(ctx, "Green Meadows", testutil.CommunityOpts{City: "Pune"})
	fx.CreateCommunity(ctx, "Lake View", testutil.CommunityOpts{City: "Mumbai", Status: models.CommunityInactive})

	var res listResult
	testutil.DecodeResult(t, get(h.List, "/communities?status=all"), &res)
	if res.Pagination.Total != 2 {
		t.Errorf("status=all: expected 2, got %d", res.Pagination.Total)
	}

	res = listResult{}
	testutil.DecodeResult(t, get(h.List, "/communities?status=all&search=mumbai"), &res)
	if len(res.Communities) != 1 || res.Communities[0].Name != "Lake View" {
		t.Errorf("search by city: got %+v", res.Communities)
	}

	res = listResult{}
	testutil.DecodeResult(t, get(h.List, "/communities?status=Inactive"), &res)
	if len(res.Communities) != 1 || res.Communities[0].Name != "Lake View" {
		t.Errorf("status filter should ignore case: got %+v", res.Communities)
	}
}

func TestList_Pagination(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	for i := range 5 {
		fx.CreateCommunity(ctx, "Community "+string(rune('A'+i)), testutil.CommunityOpts{CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	var res listResult
	testutil.DecodeResult(t, get(h.List, "/communities?page=2&limit=2"), &res)
	if len(res.Communities) != 2 || res.Communities[0].Name != "Community C" {
		t.Errorf("unexpected page 2: %+v", res.Communities)
	}
	if res.Pagination.TotalPages != 3 || res.Pagination.Total != 5 {
		t.Errorf("unexpected pagination: %+v", res.Pagination)
	}
}

func TestList_HugePageIsEmpty(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateCommunity(ctx, "Only", testutil.CommunityOpts{})

	rec := get(h.List, "/communities?page=9223372036854775807&limit=100")
	testutil.AssertStatus(t, rec, http.StatusOK)
	var res listResult
	testutil.DecodeResult(t, rec, &res)
	if len(res.Communities) != 0 || res.Pagination.Total != 1 {
		t.Errorf("expected an empty far page, got %+v", res)
	}
}

func TestFeatured_FallsBackToNewestActive(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateCommunity(ctx, "Plain", testutil.CommunityOpts{})

	var items []models.CommunityView
	testutil.DecodeResult(t, get(h.Featured, "/communities/featured"), &items)
	if len(items) != 1 || items[0].Name != "Plain" {
		t.Fatalf("expected fallback to newest active, got %+v", items)
	}

	fx.CreateCommunity(ctx, "Star", testutil.CommunityOpts{Featured: true})
	items = nil
	testutil.DecodeResult(t, get(h.Featured, "/communities/featured?limit=5"), &items)
	if len(items) != 1 || items[0].Name != "Star" {
		t.Errorf("expected only featured community, got %+v", items)
	}
}

func TestGet_NotFound(t *testing.T) {
	h, _ := newHandler(t)

	testutil.AssertStatus(t, get(h.Get, "/communities/x", "id", "not-an-id"), http.StatusNotFound)
	testutil.AssertStatus(t, get(h.Get, "/communities/x", "id", primitive.NewObjectID().Hex()), http.StatusNotFound)
}

func TestGetAndMembers(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommunity(ctx, "Sunrise", testutil.CommunityOpts{})
	u := fx.CreateActiveUser(ctx, "Meera", "meera@example.com")
	fx.AddMember(ctx, c.ID, u.ID)

	var got models.CommunityView
	testutil.DecodeResult(t, get(h.Get, "/communities/x", "id", c.ID.Hex()), &got)
	if got.Name != "Sunrise" || got.MemberCount != 1 {
		t.Errorf("unexpected community: %+v", got)
	}

	var members []models.UserSummary
	testutil.DecodeResult(t, get(h.Members, "/communities/x/members", "id", c.ID.Hex()), &members)
	if len(members) != 1 || members[0].ID != u.ID || members[0].Email != "meera@example.com" {
		t.Errorf("unexpected members: %+v", members)
	}
}

func TestGet_PopulatesAmenitiesAndCreator(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	pool := fx.CreateAmenity(ctx, "Pool", "Sports", true)
	c := fx.CreateCommunity(ctx, "Lakeside", testutil.CommunityOpts{
		AmenityIDs: []primitive.ObjectID{pool.ID},
		CreatedBy:  &admin.ID,
	})

	rec := get(h.Get, "/communities/x", "id", c.ID.Hex())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got models.CommunityView
	testutil.DecodeResult(t, rec, &got)
	if len(got.Amenities) != 1 || got.Amenities[0].ID != pool.ID || got.Amenities[0].Name != "Pool" {
		t.Errorf("unexpected amenities: %+v", got.Amenities)
	}
	if got.Creator == nil || got.Creator.Name != "Admin" {
		t.Errorf("unexpected createdBy: %+v", got.Creator)
	}

	var res listResult
	testutil.DecodeResult(t, get(h.List, "/communities"), &res)
	if len(res.Communities) != 1 || len(res.Communities[0].Amenities) != 1 || res.Communities[0].Creator == nil {
		t.Errorf("expected populated list item, got %+v", res.Communities)
	}
}

func TestCreate(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	amenity := fx.CreateAmenity(ctx, "Pool", "Sports", true)

	req := testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/communities", map[string]any{
		"name":        "  <b>Palm Grove</b> ",
		"description": "Quiet gated community",
		"location":    map[string]any{"city": "Goa"},
		"status":      "Active",
		"amenities":   []string{amenity.ID.Hex()},
		"highlights":  []string{"Clubhouse", ""},
	}), admin)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var c models.Community
	testutil.DecodeResult(t, rec, &c)
	if c.Name != "Palm Grove" || c.Status != models.CommunityActive || c.Location.City != "Goa" {
		t.Errorf("unexpected community: %+v", c)
	}
	if len(c.AmenityIDs) != 1 || c.AmenityIDs[0] != amenity.ID || len(c.Highlights) != 1 {
		t.Errorf("unexpected amenities/highlights: %v %v", c.AmenityIDs, c.Highlights)
	}
	if c.MemberCount != 0 || c.CreatedBy == nil || *c.CreatedBy != admin.ID {
		t.Errorf("unexpected bookkeeping: count=%d createdBy=%v", c.MemberCount, c.CreatedBy)
	}
}

func TestCreate_Validation(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	req := testutil.WithUser(testutil.JSONRequest(t, http.MethodPost, "/communities", map[string]any{
		"name":      "X",
		"amenities": []string{"bogus"},
	}), admin)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	env := testutil.DecodeEnvelope(t, rec)
	fields := map[string]bool{}
	for _, e := range env.Errors {
		fields[e.Field] = true
	}
	for _, f := range []string{"name", "city"} {
		if !fields[f] {
			t.Errorf("expected error for %s, got %+v", f, env.Errors)
		}
	}
}
