package book

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Digest is the Keccak-256 hash of the canonical encoding. Two replicas that
// executed the same instruction sequence must produce equal digests; the host
// compares them after replay.
func (b *Book) Digest() common.Hash {
	return crypto.Keccak256Hash(b.Encode())
}
