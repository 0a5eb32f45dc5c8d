package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"photo-versions-backend/internal/metrics"
	"photo-versions-backend/internal/models"
)

const DefaultPresignTTL = 15 * time.Minute

// BlobStore issues presigned handles against object storage. It never moves bytes.
type BlobStore interface {
	IssueWriteHandle(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (*models.BlobHandle, error)
	IssueReadHandle(ctx context.Context, bucket, key string, ttl time.Duration) (*models.BlobHandle, error)
	// DeleteObject removes the object and reports whether it existed.
	DeleteObject(ctx context.Context, bucket, key string) (bool, error)
}

// MetadataStore persists one record per photo. GetPhoto returns (nil, nil) for
// an absent record; UpdatePhoto and DeletePhoto return models.ErrPhotoNotFound.
type MetadataStore interface {
	PutPhoto(ctx context.Context, photo *models.Photo) error
	GetPhoto(ctx context.Context, photoID string) (*models.Photo, error)
	UpdatePhoto(ctx context.Context, photoID string, update models.PhotoUpdate) error
	DeletePhoto(ctx context.Context, photoID string) error
	QueryPhotosByOwner(ctx context.Context, query models.PhotoQuery) (*models.PhotoPage, error)
}

// EventPublisher fans photo lifecycle events out to subscribers.
type EventPublisher interface {
	PublishPhotoEvent(ctx context.Context, ownerID, photoID, event string, payload map[string]interface{}) error
}

const (
	EventUploadRequested   = "upload_requested"
	EventUploadConfirmed   = "upload_confirmed"
	EventEditRequested     = "edit_requested"
	EventAttributesUpdated = "attributes_updated"
	EventPhotoDeleted      = "photo_deleted"
)

type Options struct {
	Buckets    Buckets
	PresignTTL time.Duration
	Now        func() time.Time
	NewID      func() string
}

type PhotoService struct {
	metadata   MetadataStore
	blobs      BlobStore
	events     EventPublisher
	buckets    Buckets
	presignTTL time.Duration
	now        func() time.Time
	newID      func() string
	log        zerolog.Logger
}

// NewPhotoService wires the photo version manager. events may be nil.
func NewPhotoService(metadata MetadataStore, blobs BlobStore, events EventPublisher, opts Options, log zerolog.Logger) *PhotoService {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = DefaultPresignTTL
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	return &PhotoService{
		metadata:   metadata,
		blobs:      blobs,
		events:     events,
		buckets:    opts.Buckets,
		presignTTL: opts.PresignTTL,
		now:        opts.Now,
		newID:      opts.NewID,
		log:        log.With().Str("component", "photo_service").Logger(),
	}
}

// PresignTTL is the validity of every handle this service issues.
func (s *PhotoService) PresignTTL() time.Duration {
	return s.presignTTL
}

type UploadResult struct {
	Photo   *models.Photo
	Handle  *models.BlobHandle
	BlobKey string
	// PreviousKey is set when an edit overwrites an existing edited blob.
	PreviousKey string
}

type DownloadResult struct {
	Photo   *models.Photo
	Version models.VersionType
	Info    models.VersionInfo
	Handle  *models.BlobHandle
}

type ListInput struct {
	VersionType string
	Limit       int
	Cursor      string
}

type ListResult struct {
	Photos []*models.Photo
	// Cursor is empty on the last page.
	Cursor string
}

type DeleteResult struct {
	PhotoID string
	Deleted []models.DeletedItem
}

// RequestUpload registers a new photo in pending_upload and returns a write
// handle for its original blob.
func (s *PhotoService) RequestUpload(ctx context.Context, callerID string, in UploadInput) (*UploadResult, error) {
	if callerID == "" {
		return nil, errUnauthenticated
	}
	in, err := validateUpload(in)
	if err != nil {
		return nil, err
	}

	photoID := s.newID()
	key := OriginalKey(callerID, photoID, in.Filename)

	handle, err := s.blobs.IssueWriteHandle(ctx, s.buckets.Originals, key, in.ContentType, s.presignTTL)
	if err != nil {
		return nil, s.internal("failed to issue upload url", err, photoID)
	}
	metrics.RecordPresign("put", string(models.VersionOriginal))

	now := s.now()
	photo := &models.Photo{
		ID:      photoID,
		OwnerID: callerID,
		Status:  models.StatusPendingUpload,
		Original: models.VersionInfo{
			Filename:    in.Filename,
			ContentType: in.ContentType,
			SizeBytes:   in.SizeBytes,
			BlobKey:     key,
			BucketID:    s.buckets.Originals,
		},
		Attrs:     models.Attributes{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.metadata.PutPhoto(ctx, photo); err != nil {
		return nil, s.internal("failed to create photo record", err, photoID)
	}

	s.log.Info().Str("photo_id", photoID).Str("user_id", callerID).Str("key", key).Msg("upload requested")
	s.publish(ctx, photo, EventUploadRequested, map[string]interface{}{
		"filename":  in.Filename,
		"file_size": in.SizeBytes,
	})

	return &UploadResult{Photo: photo, Handle: handle, BlobKey: key}, nil
}

// RequestDownload returns a read handle for the requested version.
func (s *PhotoService) RequestDownload(ctx context.Context, callerID, photoID, version string) (*DownloadResult, error) {
	if callerID == "" {
		return nil, errUnauthenticated
	}
	v, err := parseVersion(version)
	if err != nil {
		return nil, err
	}
	photo, err := s.loadOwned(ctx, callerID, photoID)
	if err != nil {
		return nil, err
	}

	info := photo.Version(v)
	if info == nil {
		return nil, errEditedNotFound
	}

	handle, err := s.blobs.IssueReadHandle(ctx, info.BucketID, info.BlobKey, s.presignTTL)
	if err != nil {
		return nil, s.internal("failed to issue download url", err, photoID)
	}
	metrics.RecordPresign("get", string(v))

	return &DownloadResult{Photo: photo, Version: v, Info: *info, Handle: handle}, nil
}

// ListPhotos returns one page of the caller's photos, newest first.
func (s *PhotoService) ListPhotos(ctx context.Context, callerID string, in ListInput) (*ListResult, error) {
	if callerID == "" {
		return nil, errUnauthenticated
	}
	filter, err := parseVersionFilter(in.VersionType)
	if err != nil {
		return nil, err
	}
	after, err := DecodeCursor(in.Cursor, filter)
	if err != nil {
		return nil, err
	}

	page, err := s.metadata.QueryPhotosByOwner(ctx, models.PhotoQuery{
		OwnerID:     callerID,
		VersionType: filter,
		After:       after,
		Limit:       clampLimit(in.Limit),
	})
	if err != nil {
		return nil, s.internal("failed to list photos", err, "")
	}

	return &ListResult{
		Photos: page.Photos,
		Cursor: EncodeCursor(page.Next, filter),
	}, nil
}

// RequestEditUpload returns a write handle for the edited blob. The first edit
// derives the edited key; later edits overwrite the same key.
func (s *PhotoService) RequestEditUpload(ctx context.Context, callerID, photoID string, in UploadInput) (*UploadResult, error) {
	if callerID == "" {
		return nil, errUnauthenticated
	}
	in, err := validateUpload(in)
	if err != nil {
		return nil, err
	}
	photo, err := s.loadOwned(ctx, callerID, photoID)
	if err != nil {
		return nil, err
	}

	key := EditedKey(photo.OwnerID, photo.ID, in.Filename)
	bucket := s.buckets.Edited
	editCount := 1
	previous := ""
	if photo.Edited != nil {
		key = photo.Edited.BlobKey
		bucket = photo.Edited.BucketID
		editCount = photo.Edited.EditCount + 1
		previous = photo.Edited.BlobKey
	}

	handle, err := s.blobs.IssueWriteHandle(ctx, bucket, key, in.ContentType, s.presignTTL)
	if err != nil {
		return nil, s.internal("failed to issue edit upload url", err, photoID)
	}
	metrics.RecordPresign("put", string(models.VersionEdited))

	edited := &models.EditedVersion{
		VersionInfo: models.VersionInfo{
			Filename:    in.Filename,
			ContentType: in.ContentType,
			SizeBytes:   in.SizeBytes,
			BlobKey:     key,
			BucketID:    bucket,
		},
		EditCount: editCount,
	}
	now := s.now()
	if err := s.metadata.UpdatePhoto(ctx, photo.ID, models.PhotoUpdate{Edited: edited, UpdatedAt: now}); err != nil {
		if errors.Is(err, models.ErrPhotoNotFound) {
			return nil, errPhotoNotFound
		}
		return nil, s.internal("failed to record edited version", err, photoID)
	}
	photo.Edited = edited
	photo.UpdatedAt = now

	s.log.Info().Str("photo_id", photoID).Int("edit_count", editCount).Str("key", key).Msg("edit upload requested")
	s.publish(ctx, photo, EventEditRequested, map[string]interface{}{
		"filename":   in.Filename,
		"edit_count": editCount,
	})

	return &UploadResult{Photo: photo, Handle: handle, BlobKey: key, PreviousKey: previous}, nil
}

// DeletePhoto removes the original blob, then the edited blob, then the record.
// Blob failures are logged and skipped; only blobs that existed and were
// removed are reported. Re-running after a partial failure converges.
func (s *PhotoService) DeletePhoto(ctx context.Context, callerID, photoID string) (*DeleteResult, error) {
	if callerID == "" {
		return nil, errUnauthenticated
	}
	photo, err := s.loadOwned(ctx, callerID, photoID)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{PhotoID: photo.ID, Deleted: []models.DeletedItem{}}
	for _, v := range []models.VersionType{models.VersionOriginal, models.VersionEdited} {
		info := photo.Version(v)
		if info == nil || info.BlobKey == "" {
			continue
		}
		existed, err := s.blobs.DeleteObject(ctx, info.BucketID, info.BlobKey)
		if err != nil {
			metrics.RecordDeleteFailure(string(v))
			s.log.Warn().Err(err).
				Str("photo_id", photo.ID).
				Str("version", string(v)).
				Str("bucket", info.BucketID).
				Str("key", info.BlobKey).
				Msg("failed to delete blob, continuing")
			continue
		}
		if existed {
			result.Deleted = append(result.Deleted, models.DeletedItem{
				Type:   string(v),
				Bucket: info.BucketID,
				Key:    info.BlobKey,
			})
		}
	}

	if err := s.metadata.DeletePhoto(ctx, photo.ID); err != nil {
		if errors.Is(err, models.ErrPhotoNotFound) {
			return nil, errPhotoNotFound
		}
		return nil, s.internal("failed to delete photo record", err, photoID)
	}

	s.log.Info().Str("photo_id", photo.ID).Int("deleted_items", len(result.Deleted)).Msg("photo deleted")
	s.publish(ctx, photo, EventPhotoDeleted, map[string]interface{}{
		"deleted_items": len(result.Deleted),
	})

	return result, nil
}

// GetMetadata returns the full record without touching the blob store.
func (s *PhotoService) GetMetadata(ctx context.Context, callerID, photoID string) (*models.Photo, error) {
	if callerID == "" {
		return nil, errUnauthenticated
	}
	return s.loadOwned(ctx, callerID, photoID)
}

// ConfirmUpload marks a pending photo as uploaded on the caller's word. The
// blob itself is not inspected.
func (s *PhotoService) ConfirmUpload(ctx context.Context, callerID, photoID string) (*models.Photo, error) {
	if callerID == "" {
		return nil, errUnauthenticated
	}
	photo, err := s.loadOwned(ctx, callerID, photoID)
	if err != nil {
		return nil, err
	}
	if photo.Status == models.StatusUploaded {
		return photo, nil
	}

	status := models.StatusUploaded
	now := s.now()
	if err := s.metadata.UpdatePhoto(ctx, photo.ID, models.PhotoUpdate{Status: &status, UpdatedAt: now}); err != nil {
		if errors.Is(err, models.ErrPhotoNotFound) {
			return nil, errPhotoNotFound
		}
		return nil, s.internal("failed to confirm upload", err, photoID)
	}
	photo.Status = status
	photo.UpdatedAt = now

	s.publish(ctx, photo, EventUploadConfirmed, nil)
	return photo, nil
}

// UpdateAttributes replaces the caller-opaque attribute map.
func (s *PhotoService) UpdateAttributes(ctx context.Context, callerID, photoID string, attrs map[string]interface{}) (*models.Photo, error) {
	if callerID == "" {
		return nil, errUnauthenticated
	}
	if attrs == nil {
		return nil, validationError("attributes are required")
	}
	if err := validateAttributes(attrs); err != nil {
		return nil, err
	}
	photo, err := s.loadOwned(ctx, callerID, photoID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	replacement := models.Attributes(attrs)
	if err := s.metadata.UpdatePhoto(ctx, photo.ID, models.PhotoUpdate{Attrs: replacement, UpdatedAt: now}); err != nil {
		if errors.Is(err, models.ErrPhotoNotFound) {
			return nil, errPhotoNotFound
		}
		return nil, s.internal("failed to update attributes", err, photoID)
	}
	photo.Attrs = replacement
	photo.UpdatedAt = now

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	s.publish(ctx, photo, EventAttributesUpdated, map[string]interface{}{"keys": keys})
	return photo, nil
}

// loadOwned fetches a record and checks it belongs to the caller. A record
// owned by someone else is Forbidden, not NotFound.
func (s *PhotoService) loadOwned(ctx context.Context, callerID, photoID string) (*models.Photo, error) {
	if photoID == "" {
		return nil, validationError("photo_id is required")
	}
	photo, err := s.metadata.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, s.internal("failed to load photo", err, photoID)
	}
	if photo == nil {
		return nil, errPhotoNotFound
	}
	if photo.OwnerID != callerID {
		s.log.Warn().Str("photo_id", photoID).Str("user_id", callerID).Msg("access denied")
		return nil, errAccessDenied
	}
	return photo, nil
}

func (s *PhotoService) internal(message string, err error, photoID string) error {
	event := s.log.Error().Err(err)
	if photoID != "" {
		event = event.Str("photo_id", photoID)
	}
	event.Msg(message)
	return internalError(message, err)
}

func (s *PhotoService) publish(ctx context.Context, photo *models.Photo, event string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishPhotoEvent(ctx, photo.OwnerID, photo.ID, event, payload); err != nil {
		s.log.Warn().Err(err).Str("photo_id", photo.ID).Str("event", event).Msg("failed to publish photo event")
	}
}
