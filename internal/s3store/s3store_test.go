package s3store_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-versions-backend/internal/s3store"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]bool
	deletes []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodHead:
		if f.objects[path] {
			w.Header().Set("Content-Type", "image/jpeg")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodDelete:
		delete(f.objects, path)
		f.deletes = append(f.deletes, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, objects map[string]bool) (*s3store.Store, *fakeS3, string) {
	t.Helper()
	fake := &fakeS3{objects: objects}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:           "us-east-1",
		Credentials:      credentials.NewStaticCredentialsProvider("test-access", "test-secret", ""),
		BaseEndpoint:     aws.String(server.URL),
		UsePathStyle:     true,
		RetryMaxAttempts: 1,
	})
	return s3store.NewWithClient(client, zerolog.Nop()), fake, server.URL
}

func TestStore_PresignedHandles(t *testing.T) {
	store, _, endpoint := newTestStore(t, map[string]bool{})
	ctx := context.Background()
	key := "user-123/originals/photo-1/a.jpg"

	put, err := store.IssueWriteHandle(ctx, "photos-originals", key, "image/jpeg", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, put.Method)
	assert.True(t, strings.HasPrefix(put.URL, endpoint+"/photos-originals/"+key+"?"), put.URL)
	assert.Contains(t, put.URL, "X-Amz-Expires=900")
	assert.Contains(t, put.URL, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), put.ExpiresAt, time.Minute)

	get, err := store.IssueReadHandle(ctx, "photos-edited", "user-123/edited/photo-1/a.jpg", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, get.Method)
	assert.Contains(t, get.URL, "/photos-edited/user-123/edited/photo-1/a.jpg?")
}

func TestStore_DeleteObject(t *testing.T) {
	key := "user-123/originals/photo-1/a.jpg"
	store, fake, _ := newTestStore(t, map[string]bool{"photos-originals/" + key: true})
	ctx := context.Background()

	existed, err := store.DeleteObject(ctx, "photos-originals", key)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteObject(ctx, "photos-originals", key)
	require.NoError(t, err)
	assert.False(t, existed)

	// The second delete never reaches S3.
	assert.Equal(t, []string{"photos-originals/" + key}, fake.deletes)
}

func TestStore_Exists(t *testing.T) {
	store, _, _ := newTestStore(t, map[string]bool{"b/k.jpg": true})

	ok, err := store.Exists(context.Background(), "b", "k.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(context.Background(), "b", "missing.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}
