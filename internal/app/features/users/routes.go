// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/import", h.Import)
	r.Post("/authenticate", h.Authenticate)
	if h.Tokens != nil {
		r.Get("/me", h.Me)
	}
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Delete("/{id}/refresh-token", h.RevokeRefreshToken)
	return r
}
