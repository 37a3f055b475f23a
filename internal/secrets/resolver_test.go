package secrets

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	calls  int
}

func (s *stubStore) AccessLatest(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[name]
	if !ok {
		return "", errors.New("NotFound")
	}
	return v, nil
}

func noEnv(string) (string, bool) { return "", false }

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "GEMINI_API_KEY", EnvKey("gemini-api-key"))
	assert.Equal(t, "OAUTH_CLIENT_ID", EnvKey("oauth-client-id"))
	assert.Equal(t, "A_B_C1", EnvKey("a.b/c1"))
}

func TestResolveFromEnvironmentSkipsStore(t *testing.T) {
	store := &stubStore{values: map[string]string{"gemini-api-key": "from-store"}}
	env := map[string]string{"GEMINI_API_KEY": "from-env"}
	r := NewResolver(store, WithEnvLookup(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))

	v, err := r.Resolve(context.Background(), "gemini-api-key")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
	assert.Equal(t, 0, store.calls)
}

func TestResolveEmptyEnvironmentValueIsIgnored(t *testing.T) {
	store := &stubStore{values: map[string]string{"gemini-api-key": "from-store"}}
	r := NewResolver(store, WithEnvLookup(func(string) (string, bool) { return "", true }))

	v, err := r.Resolve(context.Background(), "gemini-api-key")
	require.NoError(t, err)
	assert.Equal(t, "from-store", v)
}

func TestResolveCachesStoreValue(t *testing.T) {
	store := &stubStore{values: map[string]string{"oauth-client-id": "client-123"}}
	r := NewResolver(store, WithEnvLookup(noEnv))
	ctx := context.Background()

	for range 3 {
		v, err := r.Resolve(ctx, "oauth-client-id")
		require.NoError(t, err)
		assert.Equal(t, "client-123", v)
	}
	assert.Equal(t, 1, store.calls)
}

func TestResolveUsesInjectedCache(t *testing.T) {
	c := cache.New(cache.NoExpiration, 0)
	c.Set("gemini-api-key", "cached", cache.NoExpiration)
	store := &stubStore{}
	r := NewResolver(store, WithCache(c), WithEnvLookup(noEnv))

	v, err := r.Resolve(context.Background(), "gemini-api-key")
	require.NoError(t, err)
	assert.Equal(t, "cached", v)
	assert.Equal(t, 0, store.calls)
}

func TestResolversDoNotShareCache(t *testing.T) {
	store := &stubStore{values: map[string]string{"k": "v"}}
	first := NewResolver(store, WithEnvLookup(noEnv))
	second := NewResolver(store, WithEnvLookup(noEnv))
	ctx := context.Background()

	_, err := first.Resolve(ctx, "k")
	require.NoError(t, err)
	_, err = second.Resolve(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestResolveStoreFailure(t *testing.T) {
	store := &stubStore{err: errors.New("permission denied")}
	r := NewResolver(store, WithEnvLookup(noEnv))

	_, err := r.Resolve(context.Background(), "gemini-api-key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSecretUnavailable)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestResolveFailureIsNotCached(t *testing.T) {
	store := &stubStore{err: errors.New("unavailable")}
	r := NewResolver(store, WithEnvLookup(noEnv))
	ctx := context.Background()

	_, err := r.Resolve(ctx, "k")
	require.Error(t, err)

	store.mu.Lock()
	store.err = nil
	store.values = map[string]string{"k": "v"}
	store.mu.Unlock()

	v, err := r.Resolve(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestResolveDevFallback(t *testing.T) {
	store := &stubStore{err: errors.New("no credentials")}
	r := NewResolver(store,
		WithEnvLookup(noEnv),
		WithDevFallbacks(map[string]string{"oauth-client-id": "dev-client"}),
	)

	v, err := r.Resolve(context.Background(), "oauth-client-id")
	require.NoError(t, err)
	assert.Equal(t, "dev-client", v)

	_, err = r.Resolve(context.Background(), "gemini-api-key")
	assert.ErrorIs(t, err, ErrSecretUnavailable)
}

func TestResolveWithoutStore(t *testing.T) {
	r := NewResolver(nil, WithEnvLookup(noEnv))

	_, err := r.Resolve(context.Background(), "gemini-api-key")
	assert.ErrorIs(t, err, ErrSecretUnavailable)
}

func TestResolveConcurrentFirstUse(t *testing.T) {
	store := &stubStore{values: map[string]string{"k": "v"}}
	r := NewResolver(store, WithEnvLookup(noEnv))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.Resolve(context.Background(), "k")
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}
	wg.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.GreaterOrEqual(t, store.calls, 1)
}
