package storage

import "sync"

// MemoryStore keeps everything in a map. Default backend for tests and
// single-node experiments.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Put(value []byte) (string, error) {
	key := GenerateDigest(value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = copyBytes(value)
	return key, nil
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBytes(value), nil
}

func (s *MemoryStore) Update(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = copyBytes(value)
	return nil
}

func (s *MemoryStore) Delete(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.values, key)
	return value, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func copyBytes(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
