package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	shipmentapp "github.com/exportexpress/backoffice/internal/application/shipment"
)

var _ shipmentapp.DocumentStorage = (*DevDocumentStorage)(nil)

// DevDocumentStorage stands in for object storage in development. It hands
// out URLs under BaseURL and treats every presigned upload as completed.
type DevDocumentStorage struct {
	BaseURL string

	mu       sync.Mutex
	uploaded map[string]struct{}
}

// NewDevDocumentStorage creates a dev storage rooted at baseURL
func NewDevDocumentStorage(baseURL string) *DevDocumentStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/dev-storage"
	}
	return &DevDocumentStorage{BaseURL: baseURL, uploaded: make(map[string]struct{})}
}

// GenerateUploadURL records key as uploaded and returns a fake PUT URL
func (s *DevDocumentStorage) GenerateUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if err := validateKey(key); err != nil {
		return "", time.Time{}, err
	}
	s.mu.Lock()
	s.uploaded[key] = struct{}{}
	s.mu.Unlock()

	expiresAt := time.Now().Add(expiresIn)
	return s.url("upload", key, expiresAt), expiresAt, nil
}

// GenerateDownloadURL returns a fake GET URL
func (s *DevDocumentStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if err := validateKey(key); err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.url("download", key, expiresAt), expiresAt, nil
}

// ObjectExists reports whether an upload URL was issued for key
func (s *DevDocumentStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.uploaded[key]
	return ok, nil
}

func (s *DevDocumentStorage) url(action, key string, expiresAt time.Time) string {
	return s.BaseURL + "/" + action + "/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
}
