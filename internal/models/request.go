package models

type UploadRequest struct {
	Filename    string `json:"filename" example:"photo.jpg"`
	ContentType string `json:"content_type" example:"image/jpeg"`
	// FileSize is the size in bytes the caller intends to upload (5 MiB - 20 MiB).
	FileSize int64 `json:"file_size" example:"6291456"`
}

type EditRequest struct {
	Filename    string `json:"filename" example:"photo_edited.jpg"`
	ContentType string `json:"content_type" example:"image/jpeg"`
	FileSize    int64  `json:"file_size" example:"6291456"`
}

type UpdateAttributesRequest struct {
	// Caller-defined fields such as tags, description, geolocation.
	Attributes map[string]interface{} `json:"attributes"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
