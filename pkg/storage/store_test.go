package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	pebble, err := NewPebbleStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("NewPebbleStore: %v", err)
	}
	t.Cleanup(func() { pebble.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"pebble": pebble,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			state := []byte("encoded-book-state")
			digest := crypto.Keccak256Hash(state)

			if err := store.SaveSnapshot("CRST-USDC", state, digest); err != nil {
				t.Fatalf("SaveSnapshot: %v", err)
			}

			got, gotDigest, ok, err := store.LoadSnapshot("CRST-USDC")
			if err != nil {
				t.Fatalf("LoadSnapshot: %v", err)
			}
			if !ok {
				t.Fatal("snapshot not found after save")
			}
			if !bytes.Equal(got, state) {
				t.Errorf("state = %q, want %q", got, state)
			}
			if gotDigest != digest {
				t.Errorf("digest = %s, want %s", gotDigest.Hex(), digest.Hex())
			}
		})
	}
}

func TestStoreMissingSnapshot(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, _, ok, err := store.LoadSnapshot("NOPE-USDC")
			if err != nil {
				t.Fatalf("LoadSnapshot: %v", err)
			}
			if ok {
				t.Error("found a snapshot that was never saved")
			}
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.SaveSnapshot("CRST-USDC", []byte("v1"), common.Hash{1}); err != nil {
				t.Fatalf("SaveSnapshot: %v", err)
			}
			if err := store.SaveSnapshot("CRST-USDC", []byte("v2"), common.Hash{2}); err != nil {
				t.Fatalf("SaveSnapshot: %v", err)
			}
			got, digest, ok, err := store.LoadSnapshot("CRST-USDC")
			if err != nil || !ok {
				t.Fatalf("LoadSnapshot: ok=%v err=%v", ok, err)
			}
			if !bytes.Equal(got, []byte("v2")) || digest != (common.Hash{2}) {
				t.Errorf("got %q digest %s, want v2", got, digest.Hex())
			}
		})
	}
}

func TestPebbleStorePersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	store, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("NewPebbleStore: %v", err)
	}
	digest := crypto.Keccak256Hash([]byte("state"))
	if err := store.SaveSnapshot("CRST-USDC", []byte("state"), digest); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, gotDigest, ok, err := reopened.LoadSnapshot("CRST-USDC")
	if err != nil || !ok {
		t.Fatalf("LoadSnapshot after reopen: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, []byte("state")) || gotDigest != digest {
		t.Error("snapshot did not survive reopen")
	}
}
