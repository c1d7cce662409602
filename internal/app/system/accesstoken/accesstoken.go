// internal/app/system/accesstoken/accesstoken.go
package accesstoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/staffdir/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinSecretLength is the shortest HMAC secret NewIssuer accepts.
const MinSecretLength = 32

const issuer = "staffdir"

var (
	ErrWeakSecret   = fmt.Errorf("access token secret must be at least %d bytes", MinSecretLength)
	ErrInvalidToken = errors.New("invalid access token")
)

// Claims are carried by every access token. The subject is the user's hex
// ObjectID.
type Claims struct {
	MainCategory   string `json:"main_category"`
	DetailCategory string `json:"detail_category"`
	jwt.RegisteredClaims
}

// UserID returns the subject as an ObjectID.
func (c Claims) UserID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Subject)
}

// Issuer signs and verifies short-lived HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer, or ErrWeakSecret when secret is too short.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for u and reports when it expires.
func (i *Issuer) Issue(u models.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		MainCategory:   u.UserCategory.MainCategory,
		DetailCategory: u.UserCategory.DetailCategory,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature, algorithm, issuer and expiry of token.
// Every failure wraps ErrInvalidToken.
func (i *Issuer) Parse(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}
