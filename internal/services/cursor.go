package services

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"photo-versions-backend/internal/models"
)

type cursorPayload struct {
	CreatedAt string `json:"c"`
	PhotoID   string `json:"id"`
	Filter    string `json:"v,omitempty"`
}

// EncodeCursor turns a page key into the opaque token handed to clients.
// The filter is embedded so a token cannot be replayed against another listing.
func EncodeCursor(key *models.PageKey, filter models.VersionType) string {
	if key == nil {
		return ""
	}
	raw, _ := json.Marshal(cursorPayload{
		CreatedAt: key.CreatedAt.UTC().Format(time.RFC3339Nano),
		PhotoID:   key.PhotoID,
		Filter:    string(filter),
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token means
// the first page.
func DecodeCursor(token string, filter models.VersionType) (*models.PageKey, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errInvalidCursor
	}
	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errInvalidCursor
	}
	if payload.PhotoID == "" || payload.Filter != string(filter) {
		return nil, errInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, payload.CreatedAt)
	if err != nil {
		return nil, errInvalidCursor
	}
	return &models.PageKey{CreatedAt: createdAt, PhotoID: payload.PhotoID}, nil
}
