package supabase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-versions-backend/internal/supabase"
)

// fakeStorage emulates the Supabase Storage endpoints the blob store uses.
func fakeStorage(t *testing.T, existing map[string]bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/storage/v1/object/upload/sign/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		path := strings.TrimPrefix(r.URL.Path, "/storage/v1")
		_ = json.NewEncoder(w).Encode(map[string]string{"url": path + "?token=upload-token"})
	})
	mux.HandleFunc("/storage/v1/object/sign/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ExpiresIn int `json:"expiresIn"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 900, body.ExpiresIn)
		path := strings.TrimPrefix(r.URL.Path, "/storage/v1")
		_ = json.NewEncoder(w).Encode(map[string]string{"signedURL": path + "?token=read-token"})
	})
	mux.HandleFunc("/storage/v1/object/list/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		bucket := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/list/")
		if bucket == "missing" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":"404","error":"Bucket not found","message":"Bucket not found"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/storage/v1/object/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		bucket := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/")
		if bucket == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"statusCode":"500","error":"internal","message":"boom"}`))
			return
		}
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		removed := make([]map[string]string, 0)
		for _, key := range body.Prefixes {
			if existing[bucket+"/"+key] {
				delete(existing, bucket+"/"+key)
				removed = append(removed, map[string]string{"name": key, "bucket_id": bucket})
			}
		}
		_ = json.NewEncoder(w).Encode(removed)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestStorageClient_IssueHandles(t *testing.T) {
	server := fakeStorage(t, map[string]bool{})
	client, err := supabase.NewStorageClient(server.URL+"/", "service-key")
	require.NoError(t, err)
	ctx := context.Background()
	key := "user-123/originals/photo-1/a.jpg"

	write, err := client.IssueWriteHandle(ctx, "photos-originals", key, "image/jpeg", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, write.Method)
	assert.Equal(t, server.URL+"/storage/v1/object/upload/sign/photos-originals/"+key+"?token=upload-token", write.URL)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), write.ExpiresAt, time.Minute)

	read, err := client.IssueReadHandle(ctx, "photos-originals", key, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, read.Method)
	assert.Equal(t, server.URL+"/storage/v1/object/sign/photos-originals/"+key+"?token=read-token", read.URL)
}

func TestStorageClient_DeleteObject(t *testing.T) {
	key := "user-123/originals/photo-1/a.jpg"
	server := fakeStorage(t, map[string]bool{"photos-originals/" + key: true})
	client, err := supabase.NewStorageClient(server.URL, "service-key")
	require.NoError(t, err)
	ctx := context.Background()

	existed, err := client.DeleteObject(ctx, "photos-originals", key)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = client.DeleteObject(ctx, "photos-originals", key)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = client.DeleteObject(ctx, "broken", key)
	assert.Error(t, err)
}

func TestStorageClient_Ping(t *testing.T) {
	server := fakeStorage(t, map[string]bool{})
	client, err := supabase.NewStorageClient(server.URL, "service-key")
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, client.Ping(ctx, "photos-originals", "photos-edited"))

	err = client.Ping(ctx, "photos-originals", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket missing")
}

func TestNewStorageClient_RequiresURL(t *testing.T) {
	_, err := supabase.NewStorageClient("", "service-key")
	assert.Error(t, err)
}

func TestNewPhotoEventRow(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	row := supabase.NewPhotoEventRow("user-123", "photo-1", "edit_requested", nil, at)

	assert.Equal(t, "user-123", row["user_id"])
	assert.Equal(t, "photo-1", row["photo_id"])
	assert.Equal(t, "edit_requested", row["event"])
	assert.Equal(t, map[string]interface{}{}, row["payload"])
	assert.Equal(t, "2024-05-01T19:00:00Z", row["created_at"])
}
