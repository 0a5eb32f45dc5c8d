package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-versions-backend/internal/memstore"
	"photo-versions-backend/internal/models"
)

func photoAt(id string, at time.Time) *models.Photo {
	return &models.Photo{ID: id, OwnerID: "user-123", Status: models.StatusPendingUpload, CreatedAt: at, UpdatedAt: at}
}

func TestMetadataStore_TiesBreakOnPhotoID(t *testing.T) {
	store := memstore.NewMetadataStore()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, store.PutPhoto(ctx, photoAt(id, at)))
	}

	page, err := store.QueryPhotosByOwner(ctx, models.PhotoQuery{OwnerID: "user-123", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Photos, 2)
	assert.Equal(t, "c", page.Photos[0].ID)
	assert.Equal(t, "b", page.Photos[1].ID)

	page, err = store.QueryPhotosByOwner(ctx, models.PhotoQuery{OwnerID: "user-123", Limit: 2, After: page.Next})
	require.NoError(t, err)
	require.Len(t, page.Photos, 1)
	assert.Equal(t, "a", page.Photos[0].ID)
	assert.Nil(t, page.Next)
}

func TestMetadataStore_ReturnsCopies(t *testing.T) {
	store := memstore.NewMetadataStore()
	ctx := context.Background()
	require.NoError(t, store.PutPhoto(ctx, photoAt("p1", time.Now())))

	got, err := store.GetPhoto(ctx, "p1")
	require.NoError(t, err)
	got.Status = models.StatusUploaded

	again, err := store.GetPhoto(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingUpload, again.Status)
}

func TestMetadataStore_MissingRecord(t *testing.T) {
	store := memstore.NewMetadataStore()
	ctx := context.Background()

	got, err := store.GetPhoto(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(store.DeletePhoto(ctx, "nope"), models.ErrPhotoNotFound))
	assert.True(t, errors.Is(store.UpdatePhoto(ctx, "nope", models.PhotoUpdate{}), models.ErrPhotoNotFound))
}

func TestBlobStore_DeleteReportsExistence(t *testing.T) {
	blobs := memstore.NewBlobStore("")
	ctx := context.Background()
	blobs.Put("photos-originals", "user-123/originals/p1/a.jpg", "image/jpeg")

	existed, err := blobs.DeleteObject(ctx, "photos-originals", "user-123/originals/p1/a.jpg")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = blobs.DeleteObject(ctx, "photos-originals", "user-123/originals/p1/a.jpg")
	require.NoError(t, err)
	assert.False(t, existed)
}
