package pulsestore_test

import (
	"testing"

	pulsestore "github.com/dalemusser/communityhub/internal/app/store/pulses"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_LikeAndCommentRequireApproval(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pulsestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cid, author, fan := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	p, err := store.Create(ctx, models.Pulse{Title: "Street lights", Description: "Broken on lane 4", CommunityID: cid, UserID: author})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Status != models.PulsePending {
		t.Errorf("expected pending, got %q", p.Status)
	}

	if _, _, err := store.ToggleLike(ctx, p.ID, fan); err != mongo.ErrNoDocuments {
		t.Errorf("expected like on pending pulse to fail, got %v", err)
	}
	if _, err := store.AddComment(ctx, p.ID, fan, "hi"); err != mongo.ErrNoDocuments {
		t.Errorf("expected comment on pending pulse to fail, got %v", err)
	}

	items, _ := store.ListApproved(ctx, cid)
	if len(items) != 0 {
		t.Fatalf("expected pending pulse hidden, got %d", len(items))
	}
	if _, err := store.SetStatus(ctx, p.ID, models.PulseApproved); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	items, _ = store.ListApproved(ctx, cid)
	if len(items) != 1 {
		t.Fatalf("expected approved pulse listed, got %d", len(items))
	}

	liked, on, err := store.ToggleLike(ctx, p.ID, fan)
	if err != nil || !on || len(liked.Likes) != 1 {
		t.Fatalf("first toggle: err=%v on=%v likes=%v", err, on, liked.Likes)
	}
	unliked, on, err := store.ToggleLike(ctx, p.ID, fan)
	if err != nil || on || len(unliked.Likes) != 0 {
		t.Fatalf("second toggle: err=%v on=%v likes=%v", err, on, unliked.Likes)
	}

	commented, err := store.AddComment(ctx, p.ID, fan, "  fixed yet? ")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if len(commented.Comments) != 1 || commented.Comments[0].Text != "fixed yet?" || commented.Comments[0].UserID != fan {
		t.Errorf("unexpected comments: %+v", commented.Comments)
	}
}
