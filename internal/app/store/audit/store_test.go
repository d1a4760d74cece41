package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LogAndGetByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	for _, et := range []string{audit.EventRegistered, audit.EventOTPVerified} {
		if err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryAuth,
			EventType: et,
			UserID:    &userID,
			IP:        "192.168.1.1",
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventOTPVerified {
		t.Errorf("expected newest first, got %q", events[0].EventType)
	}
	if events[0].ID.IsZero() || events[0].Timestamp.IsZero() {
		t.Error("expected ID and Timestamp to be filled in")
	}
}

func TestStore_CountFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	since := time.Now().Add(-time.Minute)
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedPassword})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUserMissing})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedPassword, Timestamp: since.Add(-time.Hour)})

	n, err := store.CountFailedLogins(ctx, since)
	if err != nil {
		t.Fatalf("CountFailedLogins failed: %v", err)
	}
	if n != 2 {
		t.Errorf("failed logins: got %d, want 2", n)
	}
}
