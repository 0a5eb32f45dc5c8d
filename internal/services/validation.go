package services

import (
	"strings"

	"photo-versions-backend/internal/models"
)

const (
	MinFileSize int64 = 5 * 1024 * 1024
	MaxFileSize int64 = 20 * 1024 * 1024

	ContentTypeJPEG = "image/jpeg"

	maxFilenameLength = 255

	DefaultListLimit = 50
	MaxListLimit     = 100
)

// image/jpg is a common misspelling that clients send for JPEG.
var acceptedContentTypes = map[string]string{
	"image/jpeg": ContentTypeJPEG,
	"image/jpg":  ContentTypeJPEG,
}

// UploadInput describes a blob the caller intends to upload.
type UploadInput struct {
	Filename    string
	ContentType string
	SizeBytes   int64
}

// validateUpload checks an upload request and returns it with the filename
// trimmed and the content type normalized.
func validateUpload(in UploadInput) (UploadInput, error) {
	in.Filename = strings.TrimSpace(in.Filename)
	if in.Filename == "" {
		return in, validationError("filename is required")
	}
	if len(in.Filename) > maxFilenameLength {
		return in, validationError("filename must be at most %d bytes", maxFilenameLength)
	}
	if strings.ContainsAny(in.Filename, "/\\") || in.Filename == "." || in.Filename == ".." {
		return in, validationError("filename must not contain path separators")
	}

	if in.SizeBytes < MinFileSize || in.SizeBytes > MaxFileSize {
		return in, validationError("File size must be between 5MB and 20MB")
	}

	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if contentType == "" {
		contentType = ContentTypeJPEG
	}
	normalized, ok := acceptedContentTypes[contentType]
	if !ok {
		return in, validationError("Only JPEG files are supported")
	}
	in.ContentType = normalized

	return in, nil
}

// parseVersion validates a requested version; empty means original.
func parseVersion(raw string) (models.VersionType, error) {
	if raw == "" {
		return models.VersionOriginal, nil
	}
	v := models.VersionType(raw)
	if !v.Valid() {
		return "", validationError(`version must be either "original" or "edited"`)
	}
	return v, nil
}

// parseVersionFilter validates an optional listing filter; empty means unfiltered.
func parseVersionFilter(raw string) (models.VersionType, error) {
	if raw == "" {
		return "", nil
	}
	v := models.VersionType(raw)
	if !v.Valid() {
		return "", validationError(`version_type must be either "original" or "edited"`)
	}
	return v, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// reservedAttributes are core field names callers cannot overwrite through
// the extensible attribute map.
var reservedAttributes = map[string]struct{}{
	"photo_id": {}, "user_id": {}, "status": {}, "created_at": {}, "updated_at": {},
	"filename": {}, "content_type": {}, "file_size": {}, "version_type": {},
	"has_edited_version": {}, "original": {}, "edited": {}, "edit_count": {},
}

func validateAttributes(attrs map[string]interface{}) error {
	for key := range attrs {
		if strings.TrimSpace(key) == "" {
			return validationError("attribute names must not be empty")
		}
		if _, reserved := reservedAttributes[key]; reserved {
			return validationError("attribute %q is reserved", key)
		}
	}
	return nil
}
