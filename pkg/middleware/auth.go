package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/apolice/crm/pkg/composables"
)

const (
	userIDHeader    = "X-User-ID"
	userEmailHeader = "X-User-Email"
)

// UserResolver maps a request to the acting user. Session handling is
// an external collaborator; the resolver is its only touch point here.
type UserResolver func(r *http.Request) (composables.User, bool)

// ProvideUser resolves the acting user and attaches it to the context.
// Requests without a resolvable user pass through without one; mutating
// services reject such requests via composables.MustUseUser.
func ProvideUser(resolve UserResolver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := resolve(r); ok {
				r = r.WithContext(composables.WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HeaderUserResolver trusts identity headers set by the fronting proxy.
// A request without a parseable X-User-ID carries no user.
func HeaderUserResolver() UserResolver {
	return func(r *http.Request) (composables.User, bool) {
		id, err := uuid.Parse(r.Header.Get(userIDHeader))
		if err != nil || id == uuid.Nil {
			return composables.User{}, false
		}
		return composables.User{
			ID:    id,
			Email: r.Header.Get(userEmailHeader),
		}, true
	}
}

// RequireUser short-circuits requests that carry no authenticated user.
func RequireUser() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.MustUseUser(r.Context()); err != nil {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
