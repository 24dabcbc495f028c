package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type object struct {
	mime string
	data []byte
}

type memoryStore struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewMemoryStore() Store {
	return &memoryStore{objects: map[string]object{}}
}

func (m *memoryStore) Put(_ context.Context, mimeType string, data []byte) (Handle, error) {
	key := "media-" + uuid.NewString()
	buf := append([]byte(nil), data...)
	m.mu.Lock()
	m.objects[key] = object{mime: mimeType, data: buf}
	m.mu.Unlock()
	return Handle{Key: key, MimeType: mimeType, Size: len(buf)}, nil
}

func (m *memoryStore) Open(_ context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return append([]byte(nil), obj.data...), obj.mime, nil
}

func (m *memoryStore) Revoke(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Close() error { return nil }
