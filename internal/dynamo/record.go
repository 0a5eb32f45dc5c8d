package dynamo

import (
	"encoding/json"
	"fmt"
	"time"

	"photo-versions-backend/internal/models"
)

const (
	UserIDIndex      = "UserIdIndex"
	UserVersionIndex = "UserVersionIndex"

	// Fixed width so the GSI sort key orders lexicographically by time.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// photoRecord is the item layout. UserVersion ("{user_id}#{version_type}") is
// the partition key of UserVersionIndex; CreatedAt is the sort key of both
// indexes.
type photoRecord struct {
	PhotoID          string `dynamodbav:"photo_id"`
	UserID           string `dynamodbav:"user_id"`
	UserVersion      string `dynamodbav:"user_version"`
	Status           string `dynamodbav:"status"`
	VersionType      string `dynamodbav:"version_type"`
	HasEditedVersion bool   `dynamodbav:"has_edited_version"`
	CreatedAt        string `dynamodbav:"created_at"`
	UpdatedAt        string `dynamodbav:"updated_at"`

	OriginalFilename    string `dynamodbav:"original_filename"`
	OriginalContentType string `dynamodbav:"original_content_type"`
	OriginalFileSize    int64  `dynamodbav:"original_file_size"`
	OriginalS3Key       string `dynamodbav:"original_s3_key"`
	OriginalBucket      string `dynamodbav:"original_bucket"`

	EditedFilename    string `dynamodbav:"edited_filename,omitempty"`
	EditedContentType string `dynamodbav:"edited_content_type,omitempty"`
	EditedFileSize    int64  `dynamodbav:"edited_file_size,omitempty"`
	EditedS3Key       string `dynamodbav:"edited_s3_key,omitempty"`
	EditedBucket      string `dynamodbav:"edited_bucket,omitempty"`
	EditCount         int    `dynamodbav:"edit_count"`

	// Caller attributes are kept as one JSON document so arbitrary values
	// survive without a DynamoDB type mapping.
	Attributes string `dynamodbav:"attributes,omitempty"`
}

func userVersionKey(userID string, v models.VersionType) string {
	return userID + "#" + string(v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func toRecord(photo *models.Photo) (*photoRecord, error) {
	rec := &photoRecord{
		PhotoID:          photo.ID,
		UserID:           photo.OwnerID,
		UserVersion:      userVersionKey(photo.OwnerID, photo.VersionType()),
		Status:           string(photo.Status),
		VersionType:      string(photo.VersionType()),
		HasEditedVersion: photo.HasEditedVersion(),
		CreatedAt:        formatTime(photo.CreatedAt),
		UpdatedAt:        formatTime(photo.UpdatedAt),

		OriginalFilename:    photo.Original.Filename,
		OriginalContentType: photo.Original.ContentType,
		OriginalFileSize:    photo.Original.SizeBytes,
		OriginalS3Key:       photo.Original.BlobKey,
		OriginalBucket:      photo.Original.BucketID,
	}
	if e := photo.Edited; e != nil {
		rec.EditedFilename = e.Filename
		rec.EditedContentType = e.ContentType
		rec.EditedFileSize = e.SizeBytes
		rec.EditedS3Key = e.BlobKey
		rec.EditedBucket = e.BucketID
		rec.EditCount = e.EditCount
	}
	if len(photo.Attrs) > 0 {
		raw, err := json.Marshal(photo.Attrs)
		if err != nil {
			return nil, fmt.Errorf("encode attributes: %w", err)
		}
		rec.Attributes = string(raw)
	}
	return rec, nil
}

func (r *photoRecord) toPhoto() (*models.Photo, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", r.PhotoID, err)
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at of %s: %w", r.PhotoID, err)
	}

	photo := &models.Photo{
		ID:      r.PhotoID,
		OwnerID: r.UserID,
		Status:  models.PhotoStatus(r.Status),
		Original: models.VersionInfo{
			Filename:    r.OriginalFilename,
			ContentType: r.OriginalContentType,
			SizeBytes:   r.OriginalFileSize,
			BlobKey:     r.OriginalS3Key,
			BucketID:    r.OriginalBucket,
		},
		Attrs:     models.Attributes{},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if r.HasEditedVersion && r.EditedS3Key != "" {
		photo.Edited = &models.EditedVersion{
			VersionInfo: models.VersionInfo{
				Filename:    r.EditedFilename,
				ContentType: r.EditedContentType,
				SizeBytes:   r.EditedFileSize,
				BlobKey:     r.EditedS3Key,
				BucketID:    r.EditedBucket,
			},
			EditCount: r.EditCount,
		}
	}
	if r.Attributes != "" {
		if err := json.Unmarshal([]byte(r.Attributes), &photo.Attrs); err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", r.PhotoID, err)
		}
	}
	return photo, nil
}
