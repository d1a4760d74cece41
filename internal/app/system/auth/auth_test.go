package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/tokens"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeUsers map[primitive.ObjectID]models.User

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func setup(users fakeUsers) (*auth.Middleware, *tokens.Manager) {
	tm := tokens.NewManager(tokens.Config{
		AccessSecret:  "a",
		RefreshSecret: "r",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
		Issuer:        "test",
		Audience:      "test",
	})
	return auth.NewMiddleware(tm, users, zap.NewNop()), tm
}

func okHandler(t *testing.T, wantID primitive.ObjectID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.CurrentUser(r)
		if !ok {
			t.Fatal("expected user in context")
		}
		if u.ID != wantID {
			t.Errorf("user id: got %s, want %s", u.ID.Hex(), wantID.Hex())
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireUser(t *testing.T) {
	active := models.User{ID: primitive.NewObjectID(), Email: "a@x.com", Role: models.RoleUser, Status: models.UserActive}
	pending := models.User{ID: primitive.NewObjectID(), Email: "p@x.com", Role: models.RoleUser, Status: models.UserPending}
	deleted := models.User{ID: primitive.NewObjectID()}
	mw, tm := setup(fakeUsers{active.ID: active, pending.ID: pending})

	activeTok, _ := tm.IssueAccess(active)
	pendingTok, _ := tm.IssueAccess(pending)
	deletedTok, _ := tm.IssueAccess(deleted)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"bearer prefix", "Bearer " + activeTok, http.StatusNoContent},
		{"raw token", activeTok, http.StatusNoContent},
		{"pending user", "Bearer " + pendingTok, http.StatusUnauthorized},
		{"unknown user", "Bearer " + deletedTok, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.RequireUser(okHandler(t, active.ID)).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status code: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		role string
		want int
	}{
		{models.RoleUser, http.StatusForbidden},
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleSuperAdmin, http.StatusNoContent},
	}
	for _, tt := range tests {
		req := auth.WithTestUser(httptest.NewRequest(http.MethodPost, "/", nil),
			&auth.SessionUser{ID: primitive.NewObjectID(), Role: tt.role})
		rec := httptest.NewRecorder()
		auth.RequireAdmin(next).ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("role %s: got %d, want %d", tt.role, rec.Code, tt.want)
		}
	}

	rec := httptest.NewRecorder()
	auth.RequireAdmin(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"abc":        "abc",
		"":           "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		if got := auth.BearerToken(req); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
