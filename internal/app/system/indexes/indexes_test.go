package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/communityhub/internal/app/system/indexes"
	"github.com/dalemusser/communityhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	// SetupTestDB already ran EnsureAll once.
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesExpectedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	want := map[string][]string{
		"users":                   {"uniq_users_emailci_live", "uniq_users_mobile_live"},
		"sessions":                {"uniq_sessions_user", "ttl_sessions_expires"},
		"community_join_requests": {"uniq_joinreq_user_community", "idx_joinreq_user_created"},
		"amenities":               {"uniq_amenities_nameci"},
		"events":                  {"idx_events_status_date"},
	}
	for coll, names := range want {
		got := indexNames(t, ctx, db, coll)
		for _, name := range names {
			if !got[name] {
				t.Errorf("expected index %q to exist on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_DeletedUserEmailCanBeReused(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"email_ci": "a@example.com", "mobile_number": "9000000001", "is_deleted": true}); err != nil {
		t.Fatalf("insert deleted user: %v", err)
	}
	if _, err := users.InsertOne(ctx, bson.M{"email_ci": "a@example.com", "mobile_number": "9000000001", "is_deleted": false}); err != nil {
		t.Fatalf("insert live user with reused email: %v", err)
	}
	_, err := users.InsertOne(ctx, bson.M{"email_ci": "a@example.com", "mobile_number": "9000000002", "is_deleted": false})
	if !mongo.IsDuplicateKeyError(err) {
		t.Fatalf("expected duplicate key error for second live user, got %v", err)
	}
}
