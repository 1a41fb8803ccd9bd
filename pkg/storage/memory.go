package storage

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryStore is an in-memory Store for tests and ephemeral nodes.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	digests   map[string]common.Hash
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string][]byte),
		digests:   make(map[string]common.Hash),
	}
}

func (s *MemoryStore) SaveSnapshot(symbol string, state []byte, digest common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[symbol] = append([]byte(nil), state...)
	s.digests[symbol] = digest
	return nil
}

func (s *MemoryStore) LoadSnapshot(symbol string) ([]byte, common.Hash, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.snapshots[symbol]
	if !ok {
		return nil, common.Hash{}, false, nil
	}
	return append([]byte(nil), state...), s.digests[symbol], true, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
