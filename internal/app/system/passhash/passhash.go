// Package passhash hashes user passwords before their first write.
//
// The cost factor is always passed in by the caller; nothing here reads
// configuration.
package passhash

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/staffdir/internal/domain/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrHashingFailure wraps every error returned by HashOnCreate.
var ErrHashingFailure = errors.New("password hashing failed")

// Hasher turns a plaintext password into an opaque hash.
type Hasher interface {
	Hash(ctx context.Context, plaintext string, cost int) (string, error)
}

// Bcrypt hashes with golang.org/x/crypto/bcrypt.
type Bcrypt struct{}

// Hash returns the bcrypt hash of plaintext. Unlike bcrypt itself, a cost
// below bcrypt.MinCost is an error rather than a silent fallback to the
// default cost.
func (Bcrypt) Hash(ctx context.Context, plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", bcrypt.InvalidCostError(cost)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether plaintext matches a bcrypt hash. It returns
// bcrypt.ErrMismatchedHashAndPassword on mismatch.
func Compare(hash, plaintext string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
}

// HashOnCreate replaces u.Password with its hash. It does nothing unless the
// record is new and carries a password. On failure u is left untouched and
// the returned error wraps both ErrHashingFailure and the hasher's error.
func HashOnCreate(ctx context.Context, h Hasher, u *models.User, isNew bool, cost int) error {
	if !isNew || u.Password == "" {
		return nil
	}
	hash, err := h.Hash(ctx, u.Password, cost)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHashingFailure, err)
	}
	u.Password = hash
	return nil
}
