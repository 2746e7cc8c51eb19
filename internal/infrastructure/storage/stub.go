package storage

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	uploadapp "github.com/gemerp/backend/internal/application/upload"
)

var _ uploadapp.ObjectStorage = (*StubObjectStorage)(nil)

// StubObjectStorage keeps objects in memory and hands out fake URLs.
// Used in development when no S3 endpoint is configured, and in tests.
type StubObjectStorage struct {
	// BaseURL prefixes generated download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// StoredObject is one object held by the stub
type StoredObject struct {
	Data        []byte
	ContentType string
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]StoredObject),
	}
}

// Upload keeps a copy of data under key
func (s *StubObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = StoredObject{Data: buf, ContentType: contentType}
	return nil
}

// GenerateDownloadURL returns a fake URL that carries its expiry
func (s *StubObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339)), expiresAt, nil
}

// DeleteObject drops key; deleting a missing key succeeds
func (s *StubObjectStorage) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Object returns what was stored under key
func (s *StubObjectStorage) Object(key string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len counts stored objects
func (s *StubObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
