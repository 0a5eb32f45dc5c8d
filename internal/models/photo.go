package models

import (
	"errors"
	"time"
)

// ErrPhotoNotFound is returned by metadata stores when an update or delete
// targets a record that does not exist.
var ErrPhotoNotFound = errors.New("photo record not found")

type PhotoStatus string

const (
	StatusPendingUpload PhotoStatus = "pending_upload"
	StatusUploaded      PhotoStatus = "uploaded"
	StatusDeleted       PhotoStatus = "deleted"
)

// VersionType addresses one of the two blobs of a photo.
type VersionType string

const (
	VersionOriginal VersionType = "original"
	VersionEdited   VersionType = "edited"
)

func (v VersionType) Valid() bool {
	return v == VersionOriginal || v == VersionEdited
}

// Attributes holds caller-supplied fields (tags, description, geolocation, ...)
// that are stored and returned as-is.
type Attributes map[string]interface{}

// Clone copies the top-level map. Values are treated as immutable.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	cp := make(Attributes, len(a))
	for k, v := range a {
		cp[k] = v
	}
	return cp
}

// VersionInfo describes one stored blob of a photo.
type VersionInfo struct {
	Filename    string
	ContentType string
	SizeBytes   int64
	BlobKey     string
	BucketID    string
}

// EditedVersion is the replacement blob of a photo. EditCount only grows.
type EditedVersion struct {
	VersionInfo
	EditCount int
}

// Photo is the metadata record of a single asset.
type Photo struct {
	ID        string
	OwnerID   string
	Status    PhotoStatus
	Original  VersionInfo
	Edited    *EditedVersion
	Attrs     Attributes
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Photo) HasEditedVersion() bool {
	return p.Edited != nil
}

// VersionType is the derived listing attribute: edited once an edit exists.
func (p *Photo) VersionType() VersionType {
	if p.HasEditedVersion() {
		return VersionEdited
	}
	return VersionOriginal
}

// Version returns the blob block for v, or nil when that version is absent.
func (p *Photo) Version(v VersionType) *VersionInfo {
	switch v {
	case VersionOriginal:
		return &p.Original
	case VersionEdited:
		if p.Edited == nil {
			return nil
		}
		return &p.Edited.VersionInfo
	}
	return nil
}

// Clone returns a copy that shares no mutable state with p.
func (p *Photo) Clone() *Photo {
	cp := *p
	if p.Edited != nil {
		edited := *p.Edited
		cp.Edited = &edited
	}
	cp.Attrs = p.Attrs.Clone()
	return &cp
}

// PhotoUpdate is a partial update; nil fields are left untouched.
type PhotoUpdate struct {
	Status    *PhotoStatus
	Edited    *EditedVersion
	Attrs     Attributes
	UpdatedAt time.Time
}

// PageKey is the position after the last row of a page.
type PageKey struct {
	CreatedAt time.Time
	PhotoID   string
}

// PhotoQuery selects an owner's photos, newest first.
type PhotoQuery struct {
	OwnerID     string
	VersionType VersionType
	After       *PageKey
	Limit       int
}

type PhotoPage struct {
	Photos []*Photo
	Next   *PageKey
}

// BlobHandle is a presigned, time-limited URL for a single blob operation.
type BlobHandle struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}
