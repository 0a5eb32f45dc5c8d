package supabase_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-versions-backend/internal/database"
	"photo-versions-backend/internal/models"
	"photo-versions-backend/internal/supabase"
)

var photoRowColumns = []string{
	"photo_id", "user_id", "status", "version_type", "has_edited_version",
	"original_filename", "original_content_type", "original_file_size", "original_s3_key", "original_bucket",
	"edited_filename", "edited_content_type", "edited_file_size", "edited_s3_key", "edited_bucket", "edit_count",
	"attributes", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*supabase.DatabaseClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return supabase.NewDatabaseClientFromDB(db), mock
}

func originalRow(rows *sqlmock.Rows, id string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, "user-123", "uploaded", "original", false,
		"a.jpg", "image/jpeg", int64(6291456), "user-123/originals/"+id+"/a.jpg", "photos-originals",
		nil, nil, nil, nil, nil, 0,
		[]byte(`{"tags":["beach"]}`), createdAt, createdAt,
	)
}

func TestDatabaseClient_GetPhoto(t *testing.T) {
	client, mock := newMockDB(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(photoRowColumns).AddRow(
		"photo-1", "user-123", "uploaded", "edited", true,
		"a.jpg", "image/jpeg", int64(6291456), "user-123/originals/photo-1/a.jpg", "photos-originals",
		"b.jpg", "image/jpeg", int64(7340032), "user-123/edited/photo-1/b.jpg", "photos-edited", 3,
		[]byte(`{"description":"pier"}`), created, created.Add(time.Hour),
	)
	mock.ExpectQuery(database.GetPhotoSQL).WithArgs("photo-1").WillReturnRows(rows)

	photo, err := client.GetPhoto(context.Background(), "photo-1")
	require.NoError(t, err)
	require.NotNil(t, photo)
	assert.Equal(t, "user-123", photo.OwnerID)
	assert.Equal(t, models.StatusUploaded, photo.Status)
	require.NotNil(t, photo.Edited)
	assert.Equal(t, 3, photo.Edited.EditCount)
	assert.Equal(t, "user-123/edited/photo-1/b.jpg", photo.Edited.BlobKey)
	assert.Equal(t, "pier", photo.Attrs["description"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseClient_GetPhoto_Absent(t *testing.T) {
	client, mock := newMockDB(t)
	mock.ExpectQuery(database.GetPhotoSQL).WithArgs("missing").WillReturnRows(sqlmock.NewRows(photoRowColumns))

	photo, err := client.GetPhoto(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, photo)
}

func TestDatabaseClient_PutPhoto(t *testing.T) {
	client, mock := newMockDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	photo := &models.Photo{
		ID:      "photo-1",
		OwnerID: "user-123",
		Status:  models.StatusPendingUpload,
		Original: models.VersionInfo{
			Filename: "a.jpg", ContentType: "image/jpeg", SizeBytes: 6291456,
			BlobKey: "user-123/originals/photo-1/a.jpg", BucketID: "photos-originals",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec(database.InsertPhotoSQL).
		WithArgs("photo-1", "user-123", "pending_upload", "original", false,
			"a.jpg", "image/jpeg", int64(6291456), "user-123/originals/photo-1/a.jpg", "photos-originals",
			[]byte(`{}`), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, client.PutPhoto(context.Background(), photo))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseClient_UpdatePhoto_Edited(t *testing.T) {
	client, mock := newMockDB(t)
	now := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	edited := &models.EditedVersion{
		VersionInfo: models.VersionInfo{
			Filename: "b.jpg", ContentType: "image/jpeg", SizeBytes: 7340032,
			BlobKey: "user-123/edited/photo-1/b.jpg", BucketID: "photos-edited",
		},
		EditCount: 2,
	}

	mock.ExpectBegin()
	mock.ExpectExec(database.UpdatePhotoEditedSQL).
		WithArgs("photo-1", "b.jpg", "image/jpeg", int64(7340032), "user-123/edited/photo-1/b.jpg", "photos-edited", 2, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := client.UpdatePhoto(context.Background(), "photo-1", models.PhotoUpdate{Edited: edited, UpdatedAt: now})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseClient_UpdatePhoto_Missing(t *testing.T) {
	client, mock := newMockDB(t)
	now := time.Now().UTC()
	status := models.StatusUploaded

	mock.ExpectBegin()
	mock.ExpectExec(database.UpdatePhotoStatusSQL).
		WithArgs("missing", "uploaded", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := client.UpdatePhoto(context.Background(), "missing", models.PhotoUpdate{Status: &status, UpdatedAt: now})
	assert.ErrorIs(t, err, models.ErrPhotoNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseClient_DeletePhoto(t *testing.T) {
	client, mock := newMockDB(t)
	mock.ExpectExec(database.DeletePhotoSQL).WithArgs("photo-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(database.DeletePhotoSQL).WithArgs("photo-1").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, client.DeletePhoto(context.Background(), "photo-1"))
	assert.ErrorIs(t, client.DeletePhoto(context.Background(), "photo-1"), models.ErrPhotoNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseClient_QueryPhotosByOwner_Pages(t *testing.T) {
	client, mock := newMockDB(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// Limit 2 asks for 3 rows; the third only signals another page.
	rows := sqlmock.NewRows(photoRowColumns)
	originalRow(rows, "photo-5", base.Add(5*time.Second))
	originalRow(rows, "photo-4", base.Add(4*time.Second))
	originalRow(rows, "photo-3", base.Add(3*time.Second))
	mock.ExpectQuery(database.ListPhotosByOwnerSQL).
		WithArgs("user-123", nil, nil, 3).
		WillReturnRows(rows)

	page, err := client.QueryPhotosByOwner(context.Background(), models.PhotoQuery{OwnerID: "user-123", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Photos, 2)
	require.NotNil(t, page.Next)
	assert.Equal(t, "photo-4", page.Next.PhotoID)
	assert.True(t, base.Add(4*time.Second).Equal(page.Next.CreatedAt))

	rest := sqlmock.NewRows(photoRowColumns)
	originalRow(rest, "photo-3", base.Add(3*time.Second))
	mock.ExpectQuery(database.ListPhotosByOwnerVersionSQL).
		WithArgs("user-123", page.Next.CreatedAt, "photo-4", 3, "original").
		WillReturnRows(rest)

	page, err = client.QueryPhotosByOwner(context.Background(), models.PhotoQuery{
		OwnerID: "user-123", VersionType: models.VersionOriginal, After: page.Next, Limit: 2,
	})
	require.NoError(t, err)
	assert.Len(t, page.Photos, 1)
	assert.Nil(t, page.Next)
	assert.NoError(t, mock.ExpectationsWereMet())
}
