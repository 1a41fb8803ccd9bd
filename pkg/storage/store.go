// Package storage persists encoded book snapshots and the emitted event log.
// The matching core never touches storage; the host hands it encoded bytes.
package storage

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
)

// Store persists book snapshots keyed by market symbol.
type Store interface {
	SaveSnapshot(symbol string, state []byte, digest common.Hash) error
	// LoadSnapshot returns the encoded state and its digest, or ok=false if
	// no snapshot exists for the symbol.
	LoadSnapshot(symbol string) (state []byte, digest common.Hash, ok bool, err error)
	Close() error
}

// PebbleStore is the production Store, backed by a pebble KV database.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// keys: s:<symbol> snapshot bytes, d:<symbol> digest
func kSnapshot(symbol string) []byte { return append([]byte("s:"), symbol...) }
func kDigest(symbol string) []byte   { return append([]byte("d:"), symbol...) }

func (s *PebbleStore) SaveSnapshot(symbol string, state []byte, digest common.Hash) error {
	batch := s.db.NewBatch()
	if err := batch.Set(kSnapshot(symbol), state, nil); err != nil {
		return err
	}
	if err := batch.Set(kDigest(symbol), digest[:], nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("save snapshot %s: %w", symbol, err)
	}
	return nil
}

func (s *PebbleStore) LoadSnapshot(symbol string) ([]byte, common.Hash, bool, error) {
	val, closer, err := s.db.Get(kSnapshot(symbol))
	if err == pebble.ErrNotFound {
		return nil, common.Hash{}, false, nil
	}
	if err != nil {
		return nil, common.Hash{}, false, fmt.Errorf("load snapshot %s: %w", symbol, err)
	}
	state := append([]byte(nil), val...)
	closer.Close()

	var digest common.Hash
	dval, dcloser, err := s.db.Get(kDigest(symbol))
	if err == nil {
		copy(digest[:], dval)
		dcloser.Close()
	} else if err != pebble.ErrNotFound {
		return nil, common.Hash{}, false, fmt.Errorf("load digest %s: %w", symbol, err)
	}
	return state, digest, true, nil
}

var _ Store = (*PebbleStore)(nil)
