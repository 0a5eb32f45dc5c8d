package models

import "time"

type UploadResponse struct {
	PhotoID         string    `json:"photo_id"`
	UploadURL       string    `json:"upload_url"`
	UploadMethod    string    `json:"upload_method"`
	ExpiresIn       int       `json:"expires_in"`
	ExpiresAt       time.Time `json:"expires_at"`
	S3Key           string    `json:"s3_key"`
	Status          string    `json:"status,omitempty"`
	Message         string    `json:"message"`
	Note            string    `json:"note,omitempty"`
	PreviousVersion string    `json:"previous_version,omitempty"`
	EditCount       int       `json:"edit_count,omitempty"`
}

type DownloadResponse struct {
	PhotoID     string          `json:"photo_id"`
	VersionType string          `json:"version_type"`
	DownloadURL string          `json:"download_url"`
	ExpiresIn   int             `json:"expires_in"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Metadata    VersionMetadata `json:"metadata"`
}

type VersionMetadata struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PhotoSummary struct {
	PhotoID          string      `json:"photo_id"`
	Filename         string      `json:"filename"`
	VersionType      string      `json:"version_type"`
	ContentType      string      `json:"content_type"`
	FileSize         int64       `json:"file_size"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	HasEditedVersion bool        `json:"has_edited_version"`
	Status           string      `json:"status"`
	Geolocation      interface{} `json:"geolocation,omitempty"`
	Tags             interface{} `json:"tags,omitempty"`
}

type PhotoListResponse struct {
	Photos           []PhotoSummary `json:"photos"`
	Count            int            `json:"count"`
	HasMore          bool           `json:"has_more"`
	LastEvaluatedKey string         `json:"last_evaluated_key,omitempty"`
}

type OriginalInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
	S3Key       string `json:"s3_key"`
	Bucket      string `json:"bucket"`
}

type EditedInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
	S3Key       string `json:"s3_key"`
	Bucket      string `json:"bucket"`
	EditCount   int    `json:"edit_count"`
}

// MetadataResponse always carries the edited key; it is null when no edit exists.
type MetadataResponse struct {
	PhotoID          string                 `json:"photo_id"`
	UserID           string                 `json:"user_id"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	Status           string                 `json:"status"`
	HasEditedVersion bool                   `json:"has_edited_version"`
	Original         OriginalInfo           `json:"original"`
	Edited           *EditedInfo            `json:"edited"`
	Attributes       map[string]interface{} `json:"attributes,omitempty"`
}

type DeletedItem struct {
	Type   string `json:"type"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

type DeleteResponse struct {
	PhotoID      string        `json:"photo_id"`
	Message      string        `json:"message"`
	DeletedItems []DeletedItem `json:"deleted_items"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Backends map[string]string `json:"backends,omitempty"`
}
