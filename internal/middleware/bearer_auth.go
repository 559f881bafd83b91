package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

type contextKey string

const ctxActorKey contextKey = "actor"

// TokenValidator resolves a bearer token to the calling actor.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (models.Actor, error)
}

// BearerAuth validates the JWT in the Authorization header and sets the
// actor into request context.
func BearerAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "missing or malformed Authorization header")
				return
			}
			actor, err := tokens.ValidateToken(r.Context(), raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole rejects actors whose role is not listed. Must run after BearerAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromCtx(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !allowed[actor.Role] {
				writeError(w, http.StatusForbidden, "role not permitted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorFromCtx returns the authenticated actor.
func ActorFromCtx(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(ctxActorKey).(models.Actor)
	return a, ok
}

// WithActor returns a context carrying the given actor.
func WithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, ctxActorKey, a)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
