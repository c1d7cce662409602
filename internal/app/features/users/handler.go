// internal/app/features/users/handler.go
package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/staffdir/internal/app/store/users"
	"github.com/dalemusser/staffdir/internal/app/system/accesstoken"
	"github.com/dalemusser/staffdir/internal/app/system/auditlog"
	"github.com/dalemusser/staffdir/internal/app/system/normalize"
	"github.com/dalemusser/staffdir/internal/app/system/paging"
	"github.com/dalemusser/staffdir/internal/app/system/passhash"
	"github.com/dalemusser/staffdir/internal/app/system/ratelimit"
	"github.com/dalemusser/staffdir/internal/app/system/timeouts"
	"github.com/dalemusser/staffdir/internal/app/system/userval"
	"github.com/dalemusser/staffdir/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the JSON user endpoints.
type Handler struct {
	Store   *userstore.Store
	Limiter *ratelimit.LoginLimiter // nil disables throttling
	Audit   *auditlog.Logger        // nil disables auditing
	Tokens  *accesstoken.Issuer     // nil disables access tokens and /me
	Log     *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(store *userstore.Store, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, tokens *accesstoken.Issuer, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Limiter: limiter, Audit: audit, Tokens: tokens, Log: logger}
}

// profileRequest is the body of PUT /users/{id}. birthday_at is either an
// RFC 3339 timestamp or a YYYY-MM-DD date.
type profileRequest struct {
	Identity struct {
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		BirthdayAt string `json:"birthday_at"`
	} `json:"identity"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	UserCategory models.UserCategory `json:"user_category"`
	Department   string              `json:"department"`
	Address      *models.Address     `json:"address"`
}

// createRequest is the body of POST /users. The password only travels
// inbound; models.User never serializes it.
type createRequest struct {
	profileRequest
	Password string `json:"password"`
}

// update maps the request onto a store update. A malformed birthday is
// returned as a field error next to an update whose birthday is zero.
func (p profileRequest) update() (userstore.ProfileUpdate, *userval.FieldError) {
	birthday, ferr := parseBirthday(p.Identity.BirthdayAt)
	return userstore.ProfileUpdate{
		Identity: models.Identity{
			FirstName:  p.Identity.FirstName,
			LastName:   p.Identity.LastName,
			BirthdayAt: birthday,
		},
		Email:        p.Email,
		Phone:        p.Phone,
		UserCategory: p.UserCategory,
		Department:   p.Department,
		Address:      p.Address,
	}, ferr
}

func (c createRequest) user() (models.User, *userval.FieldError) {
	p, ferr := c.update()
	u := profileUser(p)
	u.Password = c.Password
	return u, ferr
}

func profileUser(p userstore.ProfileUpdate) models.User {
	return models.User{
		Identity:     p.Identity,
		Email:        p.Email,
		UserCategory: p.UserCategory,
		Phone:        p.Phone,
		Department:   p.Department,
		Address:      p.Address,
	}
}

// Create handles POST /users.
//
//	201 with the created user (no password)
//	422 with {"errors":[...]} when fields are invalid
//	409 with {"errors":[...]} when email or phone is taken
//	500 when hashing or the insert fails
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	candidate, ferr := req.user()
	if ferr != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorsResponse{Errors: withBirthdayError(candidate, *ferr, true)})
		return
	}

	// bcrypt dominates this request, so it gets the longer budget.
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "users.create")
	defer cancel()

	u, err := h.Store.Create(ctx, candidate)
	if err != nil {
		h.writeStoreError(w, "create user", err)
		return
	}

	h.Audit.UserCreated(ctx, r, u)
	writeJSON(w, http.StatusCreated, u)
}

// Get handles GET /users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "users.get")
	defer cancel()

	u, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.writeStoreError(w, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// List handles GET /users?main_category=...&detail_category=...
// main_category is required; detail_category narrows the result. Pages
// follow ?after= / ?before= cursors from the previous response.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	main := normalize.Text(query.Get(r, "main_category"))
	detail := normalize.Text(query.Get(r, "detail_category"))
	if main == "" {
		writeMessage(w, http.StatusBadRequest, "main_category is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "users.list")
	defer cancel()

	page, err := h.Store.ListByCategory(ctx, main, detail, paging.FromRequest(r))
	if err != nil {
		h.writeStoreError(w, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Users: page.Items,
		Prev:  page.Prev,
		Next:  page.Next,
	})
}

type listResponse struct {
	Users []models.User `json:"users"`
	Prev  string        `json:"prev,omitempty"`
	Next  string        `json:"next,omitempty"`
}

// Update handles PUT /users/{id}. The password cannot be changed here.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	upd, ferr := req.update()
	if ferr != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorsResponse{Errors: withBirthdayError(profileUser(upd), *ferr, false)})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "users.update")
	defer cancel()

	u, err := h.Store.Update(ctx, id, upd)
	if err != nil {
		h.writeStoreError(w, "update user", err)
		return
	}
	h.Audit.UserUpdated(ctx, r, id)
	writeJSON(w, http.StatusOK, u)
}

// Delete handles DELETE /users/{id}: 204 on success, 404 if absent.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "users.delete")
	defer cancel()

	n, err := h.Store.Delete(ctx, id)
	if err != nil {
		h.writeStoreError(w, "delete user", err)
		return
	}
	if n == 0 {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	h.Audit.UserDeleted(ctx, r, id)
	w.WriteHeader(http.StatusNoContent)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User         *models.User `json:"user"`
	RefreshToken string       `json:"refresh_token"`
	AccessToken  string       `json:"access_token,omitempty"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
}

// Authenticate handles POST /users/authenticate. On success it rotates the
// user's refresh token and returns it with the user, plus a signed access
// token when an issuer is configured.
//
//	200 {"user":{...},"refresh_token":"...","access_token":"...","expires_at":"..."}
//	401 for an unknown email or a wrong password alike
//	429 when the caller or the account is throttled
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if h.Limiter != nil {
		if err := h.Limiter.Check(r, req.Email); err != nil {
			h.Audit.AuthThrottled(r.Context(), r)
			writeMessage(w, http.StatusTooManyRequests, err.Error())
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "users.authenticate")
	defer cancel()

	u, err := h.Store.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, userstore.ErrInvalidCredentials) {
		h.Audit.AuthFailed(ctx, r)
		writeMessage(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		h.writeStoreError(w, "authenticate", err)
		return
	}

	token, err := h.Store.RotateRefreshToken(ctx, u.ID)
	if err != nil {
		h.writeStoreError(w, "rotate refresh token", err)
		return
	}
	resp := authResponse{User: u, RefreshToken: token}
	if h.Tokens != nil {
		access, expiresAt, err := h.Tokens.Issue(*u)
		if err != nil {
			h.writeStoreError(w, "issue access token", err)
			return
		}
		resp.AccessToken = access
		resp.ExpiresAt = &expiresAt
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}

	h.Audit.AuthSucceeded(ctx, r, u.ID)
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /users/me with an "Authorization: Bearer <access token>"
// header and returns the token's user.
//
//	401 when the header is missing or the token does not verify
//	404 when the user no longer exists
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	claims, err := h.Tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, accesstoken.ErrInvalidToken.Error())
		return
	}
	id, err := claims.UserID()
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, accesstoken.ErrInvalidToken.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "users.me")
	defer cancel()

	u, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.writeStoreError(w, "get current user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// RevokeRefreshToken handles DELETE /users/{id}/refresh-token: 204, or 404
// if the user does not exist.
func (h *Handler) RevokeRefreshToken(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "users.revoke")
	defer cancel()

	if err := h.Store.ClearRefreshToken(ctx, id); err != nil {
		h.writeStoreError(w, "revoke refresh token", err)
		return
	}
	h.Audit.RefreshTokenRevoked(ctx, r, id)
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(normalize.ObjectIDHex(chi.URLParam(r, "id")))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid user id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// writeStoreError maps store errors onto HTTP statuses.
func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	if verrs, ok := userval.AsErrors(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorsResponse{Errors: verrs})
		return
	}

	var fe userval.FieldError
	if errors.As(err, &fe) && fe.Kind == userval.DuplicateValue {
		writeJSON(w, http.StatusConflict, errorsResponse{Errors: userval.Errors{fe}})
		return
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		writeMessage(w, http.StatusNotFound, "user not found")
	case errors.Is(err, passhash.ErrHashingFailure):
		h.Log.Error(op+": password hashing failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "could not store password")
	default:
		h.Log.Error(op+" failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

type errorsResponse struct {
	Errors userval.Errors `json:"errors"`
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
