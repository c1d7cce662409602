package userstore

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/dalemusser/staffdir/internal/app/system/indexes"
	"github.com/dalemusser/staffdir/internal/app/system/normalize"
	"github.com/dalemusser/staffdir/internal/app/system/paging"
	"github.com/dalemusser/staffdir/internal/app/system/passhash"
	"github.com/dalemusser/staffdir/internal/app/system/userval"
	"github.com/dalemusser/staffdir/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when another user already has the email.
	ErrDuplicateEmail error = userval.FieldError{
		Field:   userval.FieldEmail,
		Kind:    userval.DuplicateValue,
		Message: "a user with this email already exists",
	}
	// ErrDuplicatePhone is returned when another user already has the phone.
	ErrDuplicatePhone error = userval.FieldError{
		Field:   userval.FieldPhone,
		Kind:    userval.DuplicateValue,
		Message: "a user with this phone number already exists",
	}
	// ErrInvalidCredentials is returned by Authenticate for an unknown email
	// or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// publicProjection hides secrets from every default read.
var publicProjection = bson.M{"password": 0, "refresh_token": 0}

type Store struct {
	c        *mongo.Collection
	validate *userval.Validator
	hasher   passhash.Hasher
	hashCost int
	now      func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithHasher replaces the bcrypt hasher.
func WithHasher(h passhash.Hasher) Option {
	return func(s *Store) { s.hasher = h }
}

// WithClock replaces time.Now for birthday validation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store over the users collection. hashCost is the bcrypt
// cost applied when a user is created.
func New(db *mongo.Database, hashCost int, opts ...Option) *Store {
	s := &Store{
		c:        db.Collection("users"),
		hasher:   passhash.Bcrypt{},
		hashCost: hashCost,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.validate = userval.New(s.now)
	return s
}

// Create validates u, hashes its password and inserts it.
//
// Validation failures return a userval.Errors batch. A hashing failure
// aborts before anything is written and wraps passhash.ErrHashingFailure.
// Duplicate email or phone, caught by the unique indexes, return
// ErrDuplicateEmail or ErrDuplicatePhone. The returned user never carries
// the password hash.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u, err := s.validate.Validate(u)
	if err != nil {
		return models.User{}, err
	}

	// Create is the only path that hashes; updates never carry a password.
	if err := passhash.HashOnCreate(ctx, s.hasher, &u, true, s.hashCost); err != nil {
		return models.User{}, err
	}

	u.ID = primitive.NewObjectID()
	u.RefreshToken = nil
	now := s.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if dup := duplicateErr(err); dup != nil {
			return models.User{}, dup
		}
		return models.User{}, err
	}

	u.Password = ""
	return u, nil
}

// GetByID loads a user by ObjectID without password or refresh token.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, publicProjection)
}

// GetByEmail looks up a user by case-insensitive email, without secrets.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)}, publicProjection)
}

// GetCredentialsByEmail is the only read that returns the password hash and
// refresh token. Use it for authentication, never for display.
func (s *Store) GetCredentialsByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)}, nil)
}

func (s *Store) findOne(ctx context.Context, filter bson.M, projection bson.M) (*models.User, error) {
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	var u models.User
	if err := s.c.FindOne(ctx, filter, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate checks plaintext against the stored hash and returns the
// user without secrets.
func (s *Store) Authenticate(ctx context.Context, email, plaintext string) (*models.User, error) {
	u, err := s.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.Password == "" || passhash.Compare(u.Password, plaintext) != nil {
		return nil, ErrInvalidCredentials
	}
	u.Password = ""
	u.RefreshToken = nil
	return u, nil
}

// ListByCategory returns one page of users in a main category, optionally
// narrowed to a detail category, ordered by last name then id. Secrets are
// excluded.
func (s *Store) ListByCategory(ctx context.Context, main, detail string, page paging.Request) (paging.Page[models.User], error) {
	const sortField = "identity.last_name"

	filter := bson.M{"user_category.main_category": main}
	if detail != "" {
		filter["user_category.detail_category"] = detail
	}
	if w := page.Window(sortField); w != nil {
		maps.Copy(filter, w)
	}

	opts := page.FindOptions(sortField).SetProjection(publicProjection)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return paging.Page[models.User]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.User
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.User]{}, err
	}
	return paging.Finish(page, rows, func(u models.User) (string, primitive.ObjectID) {
		return u.Identity.LastName, u.ID
	}), nil
}

// ProfileUpdate holds the fields a user update may change. The password is
// deliberately absent: updates never hash or replace it.
type ProfileUpdate struct {
	Identity     models.Identity
	Email        string
	Phone        string
	UserCategory models.UserCategory
	Department   string
	Address      *models.Address
}

// Update replaces a user's profile fields after validation. Empty optional
// fields are removed from the document. Returns mongo.ErrNoDocuments when id
// does not exist, and ErrDuplicateEmail / ErrDuplicatePhone on conflicts.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	u, err := s.validate.ValidateProfile(models.User{
		Identity:     upd.Identity,
		Email:        upd.Email,
		Phone:        upd.Phone,
		UserCategory: upd.UserCategory,
		Department:   upd.Department,
		Address:      upd.Address,
	})
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"identity":      u.Identity,
		"email":         u.Email,
		"user_category": u.UserCategory,
		"updated_at":    s.now(),
	}
	unset := bson.M{}
	optional := func(key string, present bool, v any) {
		if present {
			set[key] = v
		} else {
			unset[key] = ""
		}
	}
	optional("phone", u.Phone != "", u.Phone)
	optional("department", u.Department != "", u.Department)
	optional("address", u.Address != nil, u.Address)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(publicProjection)

	var out models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		if dup := duplicateErr(err); dup != nil {
			return nil, dup
		}
		return nil, err
	}
	return &out, nil
}

// SetRefreshToken stores an opaque refresh token on the user.
func (s *Store) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"refresh_token": token, "updated_at": s.now()}})
}

// ClearRefreshToken removes the user's refresh token.
func (s *Store) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{
		"$unset": bson.M{"refresh_token": ""},
		"$set":   bson.M{"updated_at": s.now()},
	})
}

// RotateRefreshToken issues a new random token, stores it and returns it.
func (s *Store) RotateRefreshToken(ctx context.Context, id primitive.ObjectID) (string, error) {
	token := uuid.NewString()
	if err := s.SetRefreshToken(ctx, id, token); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EmailExistsForOther checks if an email already exists for a user other than
// the given ID. It is a courtesy pre-check for forms; the unique index is
// what actually enforces uniqueness.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// duplicateErr maps a duplicate-key error to the field it collided on, by
// the name of the violated index. It returns nil for any other error.
func duplicateErr(err error) error {
	if !wafflemongo.IsDup(err) && !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if violatedIndex(err.Error()) == indexes.UsersPhoneUnique {
		return ErrDuplicatePhone
	}
	return ErrDuplicateEmail
}

// violatedIndex extracts the index name from an E11000 message:
//
//	E11000 duplicate key error collection: db.users index: <name> dup key: { ... }
//
// The name is read before "dup key:" so the key value cannot influence it.
func violatedIndex(msg string) string {
	if i := strings.Index(msg, " dup key:"); i >= 0 {
		msg = msg[:i]
	}
	const marker = " index: "
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	name, _, _ := strings.Cut(msg[i+len(marker):], " ")
	return name
}
