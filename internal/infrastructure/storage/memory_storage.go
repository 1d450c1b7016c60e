package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bizdesk/backend/internal/application/shared"
)

// Object is a stored object held by MemoryObjectStorage
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryObjectStorage keeps objects in process memory.
// Used when storage is disabled (local development) and in tests.
type MemoryObjectStorage struct {
	// BaseURL is the prefix of generated public and download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryObjectStorage creates a new MemoryObjectStorage
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/files"
	}
	return &MemoryObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

// Ensure MemoryObjectStorage implements ObjectStorage
var _ shared.ObjectStorage = (*MemoryObjectStorage)(nil)

// Upload stores a copy of data under storageKey
func (s *MemoryObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) (string, error) {
	if storageKey == "" {
		return "", ErrEmptyKey
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[storageKey] = Object{Data: buf, ContentType: contentType}
	s.mu.Unlock()

	return s.BaseURL + "/" + storageKey, nil
}

// GenerateDownloadURL returns an unsigned URL that expires at the given time
func (s *MemoryObjectStorage) GenerateDownloadURL(
	_ context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/" + storageKey + "?expires=" + expiresAt.UTC().Format(time.RFC3339)
	return url, expiresAt, nil
}

// DeleteObject removes an object; deleting a missing key is not an error
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	delete(s.objects, storageKey)
	s.mu.Unlock()
	return nil
}

// Get returns a stored object
func (s *MemoryObjectStorage) Get(storageKey string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	return obj, ok
}

// Len returns the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
