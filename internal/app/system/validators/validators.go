// internal/app/system/validators/validators.go
package validators

// The users $jsonSchema mirrors the rules in userval so a write that bypasses
// the store is still rejected by the server. Uniqueness lives in indexes.

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/staffdir/internal/app/system/userval"
	"github.com/dalemusser/staffdir/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the collections this service owns and attaches their
// JSON-Schema validators. Servers without collMod validator support (some
// DocumentDB versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, c := range []struct {
		name   string
		schema bson.M
	}{
		{"users", UsersSchema()},
	} {
		if err := ensure(ctx, db, c.name, c.schema); err != nil {
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensure(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	if err := ensureCollection(ctx, db, name); err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	err := setValidator(ctx, db, name, schema)
	if commandFailed(err, 59, "no such command") || commandFailed(err, 115, "not implemented", "not supported") {
		zap.L().Info("validator skipped (unsupported)", zap.String("collection", name))
		return nil
	}
	return err
}

/* ---------------------- collection helpers & logging ---------------------- */

// ensureCollection idempotently makes sure <name> exists, logging whether it
// was created.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && len(names) > 0 {
		zap.L().Info("collection exists", zap.String("collection", name))
		return nil
	}
	// Listing failed or came back empty: create, tolerating a concurrent create.
	if err := db.CreateCollection(ctx, name); err != nil {
		if commandFailed(err, 48, "already exists", "namespace exists") {
			zap.L().Info("collection exists", zap.String("collection", name))
			return nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

// commandFailed reports whether err is a server command error with the given
// code, or whose message contains one of the fragments (case-insensitive).
func commandFailed(err error, code int32, fragments ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

func stringEnum(values []string) bson.A {
	out := bson.A{}
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

// UsersSchema is the validator attached to the users collection.
func UsersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"identity", "email", "password", "user_category"},
			"properties": bson.M{
				"identity": bson.M{
					"bsonType": "object",
					"required": bson.A{"first_name", "last_name", "birthday_at"},
					"properties": bson.M{
						"first_name":  bson.M{"bsonType": "string", "minLength": userval.MinNameLength},
						"last_name":   bson.M{"bsonType": "string", "minLength": userval.MinNameLength},
						"birthday_at": bson.M{"bsonType": "date"},
					},
				},
				"email":    bson.M{"bsonType": "string", "pattern": userval.EmailPattern.String()},
				"password": bson.M{
					"bsonType":  "string",
					"minLength": userval.MinPasswordLength,
					"maxLength": userval.MaxPasswordBytes,
				},
				"user_category": bson.M{
					"bsonType": "object",
					"required": bson.A{"main_category", "detail_category"},
					"properties": bson.M{
						"main_category":   bson.M{"enum": stringEnum(models.MainCategories)},
						"detail_category": bson.M{"enum": stringEnum(models.DetailCategories)},
					},
				},
				"phone":         bson.M{"bsonType": "string", "pattern": userval.PhonePattern.String()},
				"department":    bson.M{"bsonType": "string"},
				"address":       bson.M{"bsonType": "object"},
				"refresh_token": bson.M{"bsonType": "string"},
				"created_at":    bson.M{"bsonType": "date"},
				"updated_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}
