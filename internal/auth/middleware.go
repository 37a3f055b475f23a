package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vbonduro/kissthem/internal/domain"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the verified user stored by Middleware.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*domain.User)
	return user, ok && user != nil
}

// UserVerifier is implemented by *Verifier.
type UserVerifier interface {
	Verify(ctx context.Context, authorization string) (*domain.User, error)
}

// Middleware rejects requests without a valid bearer token before any
// downstream handler runs.
func Middleware(v UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := v.Verify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeUnauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	body := map[string]any{
		"success": false,
		"error":   "Authentication required",
		"message": "Please sign in with Google to continue",
	}
	if errors.Is(err, ErrTokenExpired) {
		body["error"] = "Token expired"
		body["message"] = "Your session has expired. Please sign in again."
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(body)
}
