package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/kissthem/internal/db"
	"github.com/vbonduro/kissthem/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func newPhoto(id, userID string, createdAt time.Time) *domain.Photo {
	return &domain.Photo{
		ID:          id,
		UserID:      userID,
		UserEmail:   userID + "@example.com",
		UserName:    "User " + userID,
		OriginalID:  id,
		OriginalURL: "https://example.com/users/" + userID + "/originals/" + id + ".jpg",
		PhotoName:   "Sunset Kiss",
		Prompt:      "make it romantic",
		AIResponse:  "done",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestPhotoStoreSaveAndGet(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()

	created := time.Date(2025, 9, 1, 12, 30, 0, 123, time.UTC)
	p := newPhoto("p1", "u1", created)
	genID, genURL := "g1", "https://example.com/users/u1/generated/g1.jpg"
	p.GeneratedID, p.GeneratedURL = &genID, &genURL

	require.NoError(t, photos.Save(ctx, p))

	got, err := photos.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "u1@example.com", got.UserEmail)
	assert.Equal(t, "Sunset Kiss", got.PhotoName)
	assert.True(t, got.HasGenerated())
	assert.Equal(t, genURL, *got.GeneratedURL)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestPhotoStoreSaveWithoutGenerated(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, photos.Save(ctx, newPhoto("p1", "u1", time.Now())))

	got, err := photos.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.GeneratedID)
	assert.Nil(t, got.GeneratedURL)
	assert.False(t, got.HasGenerated())
}

func TestPhotoStoreGetMissing(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))

	got, err := photos.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPhotoStoreListByUser(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, photos.Save(ctx, newPhoto("old", "u1", base)))
	require.NoError(t, photos.Save(ctx, newPhoto("new", "u1", base.Add(2*time.Hour))))
	require.NoError(t, photos.Save(ctx, newPhoto("mid", "u1", base.Add(time.Hour))))
	require.NoError(t, photos.Save(ctx, newPhoto("other", "u2", base.Add(3*time.Hour))))

	list, err := photos.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, "old", list[2].ID)
}

func TestPhotoStoreListByUserEmpty(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))

	list, err := photos.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestPhotoStoreDelete(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, photos.Save(ctx, newPhoto("p1", "u1", time.Now())))
	require.NoError(t, photos.Delete(ctx, "p1"))

	got, err := photos.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is a no-op.
	assert.NoError(t, photos.Delete(ctx, "p1"))
}
