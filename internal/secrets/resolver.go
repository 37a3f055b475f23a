// Package secrets resolves named credentials such as API keys and OAuth
// client ids. Values come from an in-memory cache, an environment override,
// a remote secret store, or (in development only) a fixed fallback.
//
// Secret values are never logged.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/patrickmn/go-cache"
)

// ErrSecretUnavailable is returned when no source has a value for a name.
var ErrSecretUnavailable = errors.New("secret unavailable")

// Store is a remote secret backend that returns the latest version of a
// named secret.
type Store interface {
	AccessLatest(ctx context.Context, name string) (string, error)
}

type Resolver struct {
	store     Store
	cache     *cache.Cache
	lookupEnv func(string) (string, bool)
	fallbacks map[string]string
	logger    *slog.Logger
}

type Option func(*Resolver)

// WithCache injects the cache used to memoize resolved values.
func WithCache(c *cache.Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithEnvLookup replaces os.LookupEnv for environment overrides.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(r *Resolver) { r.lookupEnv = fn }
}

// WithDevFallbacks installs hardcoded values consulted after every other
// source fails. Only non-production wiring should pass this option.
func WithDevFallbacks(fallbacks map[string]string) Option {
	return func(r *Resolver) { r.fallbacks = fallbacks }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver builds a Resolver. store may be nil, in which case only the
// cache, environment and fallbacks are consulted.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		cache:     cache.New(cache.NoExpiration, 0),
		lookupEnv: os.LookupEnv,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the value for name. Successful lookups are cached for the
// lifetime of the Resolver.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	if v, found := r.cache.Get(name); found {
		return v.(string), nil
	}

	if v, ok := r.lookupEnv(EnvKey(name)); ok && v != "" {
		r.logger.Debug("secret resolved from environment", "secret", name)
		r.cache.Set(name, v, cache.NoExpiration)
		return v, nil
	}

	var storeErr error
	if r.store != nil {
		v, err := r.store.AccessLatest(ctx, name)
		if err == nil && v != "" {
			r.logger.Debug("secret resolved from store", "secret", name)
			r.cache.Set(name, v, cache.NoExpiration)
			return v, nil
		}
		if err == nil {
			err = errors.New("empty payload")
		}
		storeErr = err
		r.logger.Error("failed to access secret", "secret", name, "error", err)
	}

	if v, ok := r.fallbacks[name]; ok && v != "" {
		r.logger.Warn("using development fallback for secret", "secret", name)
		r.cache.Set(name, v, cache.NoExpiration)
		return v, nil
	}

	if storeErr != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrSecretUnavailable, name, storeErr)
	}
	return "", fmt.Errorf("%w: %s", ErrSecretUnavailable, name)
}

// EnvKey maps a secret name to its environment override key:
// "gemini-api-key" becomes "GEMINI_API_KEY".
func EnvKey(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, name)
}
