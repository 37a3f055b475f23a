package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/kissthem/internal/domain"
)

// Runs against a real server only when KISSTHEM_TEST_MONGO_URI is set.
func openTestStore(t *testing.T) *PhotoStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo integration test in short mode")
	}
	uri := os.Getenv("KISSTHEM_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("KISSTHEM_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("kissthem_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := NewPhotoStore(db)
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func TestPhotoStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	genID, genURL := "g1", "https://example.com/g1.jpg"
	older := &domain.Photo{ID: "p1", UserID: "u1", OriginalID: "p1", OriginalURL: "https://example.com/p1.jpg",
		PhotoName: "First", CreatedAt: base, UpdatedAt: base}
	newer := &domain.Photo{ID: "p2", UserID: "u1", OriginalID: "p2", OriginalURL: "https://example.com/p2.jpg",
		GeneratedID: &genID, GeneratedURL: &genURL, PhotoName: "Second",
		CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)}

	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	got, err := store.Get(ctx, "p2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.HasGenerated())
	assert.Equal(t, "Second", got.PhotoName)

	list, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID)
	assert.Nil(t, list[1].GeneratedURL)

	require.NoError(t, store.Delete(ctx, "p1"))
	missing, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPhotoStoreListEmpty(t *testing.T) {
	store := openTestStore(t)

	list, err := store.ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
