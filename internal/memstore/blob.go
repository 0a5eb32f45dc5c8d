package memstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"photo-versions-backend/internal/models"
)

// BlobStore tracks object existence only. Handles point at BaseURL and are
// not served by anything; Put simulates a client completing an upload.
type BlobStore struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string]string
	now     func() time.Time

	// FailDeleteFor makes DeleteObject fail for the listed bucket/key pairs.
	FailDeleteFor map[string]error
	FailIssueWith error
}

func NewBlobStore(baseURL string) *BlobStore {
	if baseURL == "" {
		baseURL = "http://localhost:9000"
	}
	return &BlobStore{
		BaseURL:       baseURL,
		objects:       make(map[string]string),
		now:           time.Now,
		FailDeleteFor: make(map[string]error),
	}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

func (s *BlobStore) IssueWriteHandle(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (*models.BlobHandle, error) {
	return s.issue(http.MethodPut, bucket, key, ttl)
}

func (s *BlobStore) IssueReadHandle(ctx context.Context, bucket, key string, ttl time.Duration) (*models.BlobHandle, error) {
	return s.issue(http.MethodGet, bucket, key, ttl)
}

func (s *BlobStore) issue(method, bucket, key string, ttl time.Duration) (*models.BlobHandle, error) {
	if s.FailIssueWith != nil {
		return nil, s.FailIssueWith
	}
	expiresAt := s.now().Add(ttl)
	u := fmt.Sprintf("%s/%s/%s?X-Expires=%d&X-Method=%s",
		s.BaseURL, url.PathEscape(bucket), escapeKey(key), expiresAt.Unix(), method)
	return &models.BlobHandle{URL: u, Method: method, ExpiresAt: expiresAt}, nil
}

func (s *BlobStore) DeleteObject(ctx context.Context, bucket, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := objectID(bucket, key)
	if err, ok := s.FailDeleteFor[id]; ok {
		return false, err
	}
	if _, ok := s.objects[id]; !ok {
		return false, nil
	}
	delete(s.objects, id)
	return true, nil
}

// Put records an object as present, as if a client had used a write handle.
func (s *BlobStore) Put(bucket, key, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectID(bucket, key)] = contentType
}

func (s *BlobStore) Exists(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[objectID(bucket, key)]
	return ok
}

// Keys lists every stored object as bucket/key.
func (s *BlobStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for id := range s.objects {
		keys = append(keys, id)
	}
	return keys
}

func escapeKey(key string) string {
	u := url.URL{Path: key}
	return u.EscapedPath()
}
