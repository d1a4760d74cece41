package joinrequeststore_test

import (
	"errors"
	"sync"
	"testing"

	joinrequeststore "github.com/dalemusser/communityhub/internal/app/store/joinrequests"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateRejectsSecondRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := joinrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID, communityID := primitive.NewObjectID(), primitive.NewObjectID()
	jr, err := store.Create(ctx, userID, communityID, " please ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if jr.Status != models.JoinPending || jr.Message != "please" {
		t.Errorf("unexpected request: %+v", jr)
	}

	if _, err := store.Create(ctx, userID, communityID, "again"); !errors.Is(err, joinrequeststore.ErrAlreadyRequested) {
		t.Errorf("expected ErrAlreadyRequested, got %v", err)
	}
}

func TestStore_ConcurrentCreateOneWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := joinrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID, communityID := primitive.NewObjectID(), primitive.NewObjectID()
	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Create(ctx, userID, communityID, "hi")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, joinrequeststore.ErrAlreadyRequested):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("expected exactly one success, got %d", ok)
	}
}

func TestStore_WithdrawThenReactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := joinrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID, communityID, reviewer := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	first, err := store.Create(ctx, userID, communityID, "first")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Review(ctx, first.ID, reviewer, models.JoinRejected, "no"); err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	if _, err := store.Withdraw(ctx, first.ID, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected stranger withdraw to fail, got %v", err)
	}
	before, err := store.Withdraw(ctx, first.ID, userID)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if before.Status != models.JoinRejected {
		t.Errorf("expected pre-withdraw status Rejected, got %q", before.Status)
	}

	again, err := store.Create(ctx, userID, communityID, "second")
	if err != nil {
		t.Fatalf("reactivating Create failed: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("expected reactivation in place, got new id %s", again.ID.Hex())
	}
	if again.Status != models.JoinPending || again.Message != "second" || again.ReviewedBy != nil || again.ReviewNotes != "" {
		t.Errorf("expected fresh pending request, got %+v", again)
	}

	n, _ := db.Collection("community_join_requests").CountDocuments(ctx, bson.M{"user_id": userID})
	if n != 1 {
		t.Errorf("expected one document for the pair, got %d", n)
	}
}

func TestStore_ReviewOnlyFromPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := joinrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	jr, err := store.Create(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	reviewer := primitive.NewObjectID()
	got, err := store.Review(ctx, jr.ID, reviewer, models.JoinApproved, " welcome ")
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if got.Status != models.JoinApproved || got.ReviewedBy == nil || *got.ReviewedBy != reviewer || got.ReviewedAt == nil || got.ReviewNotes != "welcome" {
		t.Errorf("unexpected reviewed request: %+v", got)
	}

	if _, err := store.Review(ctx, jr.ID, reviewer, models.JoinRejected, ""); !errors.Is(err, joinrequeststore.ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
	if _, err := store.Review(ctx, primitive.NewObjectID(), reviewer, models.JoinApproved, ""); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListForUserPopulates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := joinrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateActiveUser(ctx, "Resident", "resident@example.com")
	admin := fx.CreateAdmin(ctx, "Reviewer Ray", "ray@example.com")
	c1 := fx.CreateCommunity(ctx, "First", testutil.CommunityOpts{City: "Pune"})
	c2 := fx.CreateCommunity(ctx, "Second", testutil.CommunityOpts{})
	c3 := fx.CreateCommunity(ctx, "Third", testutil.CommunityOpts{})

	r1, _ := store.Create(ctx, user.ID, c1.ID, "one")
	if _, err := store.Review(ctx, r1.ID, admin.ID, models.JoinApproved, ""); err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if _, err := store.Create(ctx, user.ID, c2.ID, "two"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	r3, _ := store.Create(ctx, user.ID, c3.ID, "three")
	if _, err := store.Withdraw(ctx, r3.ID, user.ID); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if _, err := store.Create(ctx, primitive.NewObjectID(), c1.ID, "other user"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	views, err := store.ListForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 live requests, got %d", len(views))
	}
	if views[0].CommunityID != c2.ID {
		t.Errorf("expected newest first")
	}
	if views[0].Reviewer != nil {
		t.Errorf("expected no reviewer on pending request, got %+v", views[0].Reviewer)
	}
	approved := views[1]
	if approved.Community == nil || approved.Community.Name != "First" || approved.Community.Location.City != "Pune" {
		t.Errorf("expected populated community, got %+v", approved.Community)
	}
	if approved.Reviewer == nil || approved.Reviewer.Name != "Reviewer Ray" || approved.Reviewer.Email != "" {
		t.Errorf("expected reviewer name only, got %+v", approved.Reviewer)
	}

	empty, err := store.ListForUser(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %v", empty)
	}
}

func TestStore_ListForCommunityByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := joinrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommunity(ctx, "Queue", testutil.CommunityOpts{})
	u1 := fx.CreateActiveUser(ctx, "One", "one@example.com")
	u2 := fx.CreateActiveUser(ctx, "Two", "two@example.com")
	r1, _ := store.Create(ctx, u1.ID, c.ID, "")
	if _, err := store.Create(ctx, u2.ID, c.ID, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Review(ctx, r1.ID, primitive.NewObjectID(), models.JoinRejected, ""); err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	pending, err := store.ListForCommunity(ctx, c.ID, models.JoinPending)
	if err != nil {
		t.Fatalf("ListForCommunity failed: %v", err)
	}
	if len(pending) != 1 || pending[0].User == nil || pending[0].User.Email != "two@example.com" {
		t.Errorf("unexpected pending list: %+v", pending)
	}

	all, _ := store.ListForCommunity(ctx, c.ID, "")
	if len(all) != 2 {
		t.Errorf("expected 2 requests, got %d", len(all))
	}
}
