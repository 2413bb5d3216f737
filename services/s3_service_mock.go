package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// MockArtifactStore is an in-memory ArtifactStore for testing
type MockArtifactStore struct {
	objects map[string][]byte // map of S3 key to object content
	mu      sync.RWMutex
}

// NewMockArtifactStore creates a new mock artifact store
func NewMockArtifactStore() *MockArtifactStore {
	return &MockArtifactStore{
		objects: make(map[string][]byte),
	}
}

// Put stores content under key
func (m *MockArtifactStore) Put(key string, content []byte) {
	m.mu.Lock()
	m.objects[key] = content
	m.mu.Unlock()
}

// Download writes the stored object to destPath
func (m *MockArtifactStore) Download(ctx context.Context, key, destPath string) error {
	m.mu.RLock()
	content, exists := m.objects[key]
	m.mu.RUnlock()

	if !exists {
		return fmt.Errorf("object not found in mock S3: %s", key)
	}
	return writeFileAtomic(destPath, bytes.NewReader(content))
}
