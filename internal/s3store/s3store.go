// Package s3store is a blob store over any S3-compatible object storage.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"photo-versions-backend/internal/metrics"
	"photo-versions-backend/internal/models"
)

const backend = "s3"

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

type Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	log       zerolog.Logger
	now       func() time.Time
}

func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewWithClient(client, log), nil
}

// NewWithClient wraps a configured client.
func NewWithClient(client *s3.Client, log zerolog.Logger) *Store {
	return &Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		log:       log.With().Str("component", "s3-store").Logger(),
		now:       time.Now,
	}
}

// IssueWriteHandle presigns a PUT. The content type is part of the signature,
// so the client must send the same Content-Type header.
func (s *Store) IssueWriteHandle(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (*models.BlobHandle, error) {
	start := time.Now()
	out, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	metrics.RecordBlobOperation(backend, "presign_put", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("presign put %s/%s: %w", bucket, key, err)
	}
	return &models.BlobHandle{URL: out.URL, Method: http.MethodPut, ExpiresAt: s.now().Add(ttl)}, nil
}

func (s *Store) IssueReadHandle(ctx context.Context, bucket, key string, ttl time.Duration) (*models.BlobHandle, error) {
	start := time.Now()
	out, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	metrics.RecordBlobOperation(backend, "presign_get", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("presign get %s/%s: %w", bucket, key, err)
	}
	return &models.BlobHandle{URL: out.URL, Method: http.MethodGet, ExpiresAt: s.now().Add(ttl)}, nil
}

// DeleteObject heads the key first because S3 reports success for deletes of
// missing keys.
func (s *Store) DeleteObject(ctx context.Context, bucket, key string) (bool, error) {
	exists, err := s.Exists(ctx, bucket, key)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	start := time.Now()
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	metrics.RecordBlobOperation(backend, "delete", err, time.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func (s *Store) Exists(ctx context.Context, bucket, key string) (bool, error) {
	start := time.Now()
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		metrics.RecordBlobOperation(backend, "head", nil, time.Since(start).Seconds())
		return false, nil
	}
	metrics.RecordBlobOperation(backend, "head", err, time.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("head %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

// Ping checks that every bucket is reachable.
func (s *Store) Ping(ctx context.Context, buckets ...string) error {
	for _, bucket := range buckets {
		if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
			return fmt.Errorf("head bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
