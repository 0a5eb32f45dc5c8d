package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"

	"photo-versions-backend/internal/metrics"
	"photo-versions-backend/internal/models"
)

const storageBackend = "supabase"

// StorageClient is a blob store over Supabase Storage signed URLs.
type StorageClient struct {
	client     *storage.Client
	storageURL string
	now        func() time.Time
}

func NewStorageClient(supabaseURL, serviceRoleKey string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	storageURL := baseURL + "/storage/v1"
	client := storage.NewClient(storageURL, serviceRoleKey, nil)

	return &StorageClient{
		client:     client,
		storageURL: storageURL,
		now:        time.Now,
	}, nil
}

// IssueWriteHandle returns a signed upload URL. Supabase fixes the validity of
// upload URLs server side; ExpiresAt reports the configured TTL, which the URL may outlive.
func (s *StorageClient) IssueWriteHandle(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (*models.BlobHandle, error) {
	start := time.Now()
	resp, err := s.client.CreateSignedUploadUrl(bucket, key)
	metrics.RecordBlobOperation(storageBackend, "sign_upload", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to create signed upload url: %w", err)
	}
	if resp.Url == "" {
		return nil, fmt.Errorf("failed to create signed upload url: empty url for %s/%s", bucket, key)
	}

	return &models.BlobHandle{
		URL:       s.absoluteURL(resp.Url),
		Method:    http.MethodPut,
		ExpiresAt: s.now().Add(ttl),
	}, nil
}

func (s *StorageClient) IssueReadHandle(ctx context.Context, bucket, key string, ttl time.Duration) (*models.BlobHandle, error) {
	start := time.Now()
	resp, err := s.client.CreateSignedUrl(bucket, key, int(ttl.Seconds()))
	metrics.RecordBlobOperation(storageBackend, "sign_download", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to create signed url: %w", err)
	}
	if resp.SignedURL == "" {
		return nil, fmt.Errorf("failed to create signed url: empty url for %s/%s", bucket, key)
	}

	return &models.BlobHandle{
		URL:       s.absoluteURL(resp.SignedURL),
		Method:    http.MethodGet,
		ExpiresAt: s.now().Add(ttl),
	}, nil
}

// DeleteObject removes a single object. Supabase answers with the objects it
// actually removed, so an empty result means the key did not exist.
func (s *StorageClient) DeleteObject(ctx context.Context, bucket, key string) (bool, error) {
	start := time.Now()
	removed, err := s.client.RemoveFile(bucket, []string{key})
	metrics.RecordBlobOperation(storageBackend, "delete", err, time.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}
	return len(removed) > 0, nil
}

// Ping lists the root of each bucket.
func (s *StorageClient) Ping(ctx context.Context, buckets ...string) error {
	for _, bucket := range buckets {
		if _, err := s.client.ListFiles(bucket, "", storage.FileSearchOptions{Limit: 1}); err != nil {
			return fmt.Errorf("bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func (s *StorageClient) absoluteURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return s.storageURL + "/" + strings.TrimPrefix(u, "/")
}
