// Package auth verifies Google ID tokens presented as bearer credentials and
// carries the resulting user through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/vbonduro/kissthem/internal/domain"
)

// ErrTokenExpired is wrapped alongside domain.ErrUnauthenticated when the
// token was well formed but past its expiry.
var ErrTokenExpired = errors.New("token expired")

const bearerPrefix = "Bearer "

// tokenValidator is the subset of *idtoken.Validator used by Verifier.
type tokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// secretResolver provides the expected audience (the OAuth client id).
type secretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

type Verifier struct {
	validator    tokenValidator
	secrets      secretResolver
	clientIDName string
	logger       *slog.Logger
}

func NewVerifier(validator tokenValidator, secrets secretResolver, clientIDName string, logger *slog.Logger) *Verifier {
	return &Verifier{
		validator:    validator,
		secrets:      secrets,
		clientIDName: clientIDName,
		logger:       logger,
	}
}

// Verify checks an Authorization header value and returns the identity it
// carries. All failures wrap domain.ErrUnauthenticated.
func (v *Verifier) Verify(ctx context.Context, authorization string) (*domain.User, error) {
	token, err := BearerToken(authorization)
	if err != nil {
		return nil, err
	}

	clientID, err := v.secrets.Resolve(ctx, v.clientIDName)
	if err != nil {
		v.logger.Error("failed to resolve oauth client id", "error", err)
		return nil, fmt.Errorf("%w: audience unavailable", domain.ErrUnauthenticated)
	}

	payload, err := v.validator.Validate(ctx, token, clientID)
	if err != nil {
		v.logger.Warn("token validation failed", "error", err)
		if isExpired(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if payload == nil || payload.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}

	user := &domain.User{
		ID:      payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}
	v.logger.Debug("authenticated user", "user", user.Email)
	return user, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(authorization string) (string, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return "", fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
	}
	token := strings.TrimSpace(authorization[len(bearerPrefix):])
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", domain.ErrUnauthenticated)
	}
	return token, nil
}

// idtoken reports expiry as a plain error string.
func isExpired(err error) bool {
	return strings.Contains(err.Error(), "token expired")
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
