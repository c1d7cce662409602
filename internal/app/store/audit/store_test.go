package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/staffdir/internal/app/store/audit"
	"github.com/dalemusser/staffdir/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserCreated,
		UserID:    &userID,
		IP:        "192.168.1.1",
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.ForUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ForUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected an id to be generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected a timestamp to be set")
	}
}

func TestStore_Query(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	events := []audit.Event{
		{Timestamp: base, Category: audit.CategoryAdmin, EventType: audit.EventUserCreated, UserID: &alice, Success: true},
		{Timestamp: base.Add(time.Hour), Category: audit.CategoryAuth, EventType: audit.EventAuthSucceeded, UserID: &alice, Success: true},
		{Timestamp: base.Add(2 * time.Hour), Category: audit.CategoryAuth, EventType: audit.EventAuthFailed, FailureReason: "invalid credentials"},
		{Timestamp: base.Add(3 * time.Hour), Category: audit.CategoryAdmin, EventType: audit.EventUserCreated, UserID: &bob, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name  string
		f     audit.Filter
		want  int
		first string
	}{
		{"all newest first", audit.Filter{}, 4, audit.EventUserCreated},
		{"by user", audit.Filter{UserID: &alice}, 2, audit.EventAuthSucceeded},
		{"by category", audit.Filter{Category: audit.CategoryAuth}, 2, audit.EventAuthFailed},
		{"by type", audit.Filter{EventType: audit.EventUserCreated}, 2, audit.EventUserCreated},
		{"since", audit.Filter{Since: base.Add(90 * time.Minute)}, 2, audit.EventUserCreated},
		{"limit", audit.Filter{Limit: 1}, 1, audit.EventUserCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.f)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d events, got %d", tt.want, len(got))
			}
			if got[0].EventType != tt.first {
				t.Errorf("first event = %q, want %q", got[0].EventType, tt.first)
			}
		})
	}
}

func TestStore_Query_EmptyIsNotNil(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events, err := store.ForUser(ctx, primitive.NewObjectID(), 10)
	if err != nil {
		t.Fatalf("ForUser failed: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("expected empty, non-nil slice, got %#v", events)
	}
}
