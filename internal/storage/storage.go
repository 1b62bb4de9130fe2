package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
)

const maxResourceURILength = 255

var (
	// ErrNotFound indicates no data key is stored for the resource.
	ErrNotFound = errors.New("data key not found")
	// ErrInvalidDataKey indicates the data key violates validation rules.
	ErrInvalidDataKey = errors.New("data key must have an unpadded resource URI of at most 255 characters and a non-empty key")
)

// DataKey is the symmetric key protecting one resource, together with the
// party that owns it.
type DataKey struct {
	ResourceURI string
	Owner       string
	Key         []byte
}

// Storage persists data keys by resource URI.
type Storage interface {
	GetDataKey(ctx context.Context, resourceURI string) (DataKey, error)
	PutDataKey(ctx context.Context, key DataKey) error
	DeleteDataKey(ctx context.Context, resourceURI string) error
	Close() error
}

// MemoryStorage keeps data keys in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu   sync.RWMutex
	keys map[string]DataKey
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		keys: make(map[string]DataKey),
	}
}

// GetDataKey returns a copy of the stored key.
func (s *MemoryStorage) GetDataKey(_ context.Context, resourceURI string) (DataKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[resourceURI]
	if !ok {
		return DataKey{}, ErrNotFound
	}
	return clone(key), nil
}

// PutDataKey validates and stores key, replacing any previous key for the
// same resource.
func (s *MemoryStorage) PutDataKey(_ context.Context, key DataKey) error {
	if err := validate(key); err != nil {
		return err
	}

	s.mu.Lock()
	s.keys[key.ResourceURI] = clone(key)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStorage) DeleteDataKey(_ context.Context, resourceURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[resourceURI]; !ok {
		return ErrNotFound
	}
	delete(s.keys, resourceURI)
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func clone(key DataKey) DataKey {
	out := key
	out.Key = append([]byte(nil), key.Key...)
	return out
}

// validate rejects padded resource URIs, so a stored key is always found by
// the URI it was stored under once trimmed.
func validate(key DataKey) error {
	uri := key.ResourceURI
	if uri == "" || uri != strings.TrimSpace(uri) || len(uri) > maxResourceURILength || len(key.Key) == 0 {
		return ErrInvalidDataKey
	}
	return nil
}
