package validators_test

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/staffdir/internal/app/system/userval"
	"github.com/dalemusser/staffdir/internal/app/system/validators"
	"github.com/dalemusser/staffdir/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func validUserDoc() bson.M {
	return bson.M{
		"identity": bson.M{
			"first_name":  "Jo",
			"last_name":   "Doe",
			"birthday_at": time.Now().AddDate(-30, 0, 0),
		},
		"email":    "jo@x.com",
		"password": "$2a$12$abcdefghijklmnopqrstuuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ012",
		"user_category": bson.M{
			"main_category":   "doctor",
			"detail_category": "practicing",
		},
	}
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesUsersCollection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{"name": "users"})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	if len(names) != 1 {
		t.Errorf("expected users collection to exist, got %v", names)
	}
}

func TestUsersValidator_ValidUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	doc := validUserDoc()
	doc["phone"] = "06 12 34 56 78"
	doc["address"] = bson.M{"city": "Lyon"}
	if _, err := db.Collection("users").InsertOne(ctx, doc); err != nil {
		t.Errorf("Insert valid user failed: %v", err)
	}
}

func TestUsersValidator_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc bson.M)
	}{
		{"missing email", func(doc bson.M) { delete(doc, "email") }},
		{"missing password", func(doc bson.M) { delete(doc, "password") }},
		{"missing identity", func(doc bson.M) { delete(doc, "identity") }},
		{"bad email", func(doc bson.M) { doc["email"] = "not-an-email" }},
		{"bad phone", func(doc bson.M) { doc["phone"] = "12345" }},
		{"short first name", func(doc bson.M) { doc["identity"].(bson.M)["first_name"] = "J" }},
		{"short password", func(doc bson.M) { doc["password"] = "short" }},
		{"overlong password", func(doc bson.M) { doc["password"] = strings.Repeat("a", userval.MaxPasswordBytes+1) }},
		{"unknown main category", func(doc bson.M) {
			doc["user_category"] = bson.M{"main_category": "surgeon", "detail_category": "practicing"}
		}},
		{"unknown detail category", func(doc bson.M) {
			doc["user_category"] = bson.M{"main_category": "nurse", "detail_category": "retired"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			if err := validators.EnsureAll(ctx, db); err != nil {
				t.Fatalf("EnsureAll failed: %v", err)
			}

			doc := validUserDoc()
			tt.mutate(doc)
			if _, err := db.Collection("users").InsertOne(ctx, doc); err == nil {
				t.Error("expected document validation error")
			}
		})
	}
}
