package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crucial707/todo-api/internal/auth"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const identityKey ctxKey = "identity"

// IdentityResolver turns a bearer token into the caller's identity.
// *service.AuthService satisfies it.
type IdentityResolver interface {
	ResolveCurrentUser(ctx context.Context, token string) (auth.Identity, error)
}

// Authenticate requires an "Authorization: Bearer <token>" header that v resolves.
// The resolved identity is available to handlers through IdentityFrom.
func Authenticate(v IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				Unauthorized(w, "not authenticated")
				return
			}

			id, err := v.ResolveCurrentUser(r.Context(), token)
			if err != nil {
				slog.Debug("token rejected", "request_id", chimw.GetReqID(r.Context()), "error", err)
				Unauthorized(w, "could not validate credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// BearerToken extracts the token from the Authorization header. The scheme is case-insensitive.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Unauthorized writes a 401 with the bearer challenge.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, message, http.StatusUnauthorized)
}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored by Authenticate, or the zero Identity.
func IdentityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey).(auth.Identity)
	return id
}
