package memory

import (
	"context"
	"sync"

	"library-backend/internal/shared/storage/kv"
)

// Store keeps values in process memory.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := kv.ValidateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var _ kv.Store = (*Store)(nil)
