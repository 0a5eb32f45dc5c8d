// Package memstore holds in-memory metadata and blob stores for local
// development and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"photo-versions-backend/internal/models"
)

type MetadataStore struct {
	mu     sync.RWMutex
	photos map[string]*models.Photo

	// FailWith, when set, is returned by every call.
	FailWith error
}

func NewMetadataStore() *MetadataStore {
	return &MetadataStore{photos: make(map[string]*models.Photo)}
}

func (s *MetadataStore) PutPhoto(ctx context.Context, photo *models.Photo) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[photo.ID] = photo.Clone()
	return nil
}

func (s *MetadataStore) GetPhoto(ctx context.Context, photoID string) (*models.Photo, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	photo, ok := s.photos[photoID]
	if !ok {
		return nil, nil
	}
	return photo.Clone(), nil
}

func (s *MetadataStore) UpdatePhoto(ctx context.Context, photoID string, update models.PhotoUpdate) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	photo, ok := s.photos[photoID]
	if !ok {
		return models.ErrPhotoNotFound
	}
	if update.Status != nil {
		photo.Status = *update.Status
	}
	if update.Edited != nil {
		edited := *update.Edited
		photo.Edited = &edited
	}
	if update.Attrs != nil {
		photo.Attrs = update.Attrs.Clone()
	}
	if !update.UpdatedAt.IsZero() {
		photo.UpdatedAt = update.UpdatedAt
	}
	return nil
}

func (s *MetadataStore) DeletePhoto(ctx context.Context, photoID string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[photoID]; !ok {
		return models.ErrPhotoNotFound
	}
	delete(s.photos, photoID)
	return nil
}

// QueryPhotosByOwner orders by (created_at DESC, photo_id DESC), the same
// order the indexed backends use.
func (s *MetadataStore) QueryPhotosByOwner(ctx context.Context, query models.PhotoQuery) (*models.PhotoPage, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.RLock()
	matches := make([]*models.Photo, 0)
	for _, photo := range s.photos {
		if photo.OwnerID != query.OwnerID {
			continue
		}
		if query.VersionType != "" && photo.VersionType() != query.VersionType {
			continue
		}
		matches = append(matches, photo.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return newerThan(matches[i].CreatedAt, matches[i].ID, matches[j].CreatedAt, matches[j].ID)
	})

	start := 0
	if query.After != nil {
		start = len(matches)
		for i, photo := range matches {
			if newerThan(query.After.CreatedAt, query.After.PhotoID, photo.CreatedAt, photo.ID) {
				start = i
				break
			}
		}
	}
	matches = matches[start:]

	page := &models.PhotoPage{Photos: matches}
	if query.Limit > 0 && len(matches) > query.Limit {
		page.Photos = matches[:query.Limit]
		last := page.Photos[len(page.Photos)-1]
		page.Next = &models.PageKey{CreatedAt: last.CreatedAt, PhotoID: last.ID}
	}
	return page, nil
}

// Count reports the number of stored records.
func (s *MetadataStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.photos)
}

// Ping satisfies the health check.
func (s *MetadataStore) Ping(ctx context.Context) error {
	return s.FailWith
}

// newerThan reports whether (aTime, aID) sorts ahead of (bTime, bID) in
// newest-first order.
func newerThan(aTime time.Time, aID string, bTime time.Time, bID string) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID > bID
}
