package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/staffdir/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// ValidUser returns an unsaved user that passes validation. Callers tweak
// fields from there.
func ValidUser(email string) models.User {
	return models.User{
		Identity: models.Identity{
			FirstName:  "Jo",
			LastName:   "Doe",
			BirthdayAt: time.Now().AddDate(0, 0, -1),
		},
		Email:    email,
		Password: "longenough1",
		UserCategory: models.UserCategory{
			MainCategory:   models.MainCategoryDoctor,
			DetailCategory: models.DetailCategoryPracticing,
		},
	}
}

// CreateUser inserts a user directly, bypassing the store, with password
// hashed at bcrypt.MinCost. The returned value still carries the plaintext
// in Password so tests can authenticate with it.
func (f *Fixtures) CreateUser(ctx context.Context, email, phone string) models.User {
	f.t.Helper()

	u := ValidUser(email)
	u.ID = primitive.NewObjectID()
	u.Phone = phone
	now := time.Now().UTC().Truncate(time.Millisecond)
	u.CreatedAt = now
	u.UpdatedAt = now

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}
	doc := u
	doc.Password = string(hash)

	if _, err := f.db.Collection("users").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}
