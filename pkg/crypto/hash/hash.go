/*
Package hash provides the hash functions digests of the trie are built with.
Every function produces a fixed 32-byte digest.
*/
package hash

import (
	"fmt"
	"hash"

	"github.com/minio/sha256-simd"
	"github.com/nspcc-dev/mptindex/pkg/util"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Names of supported hash functions.
const (
	SHA256Name    = "sha256"
	Keccak256Name = "keccak256"
	Blake2bName   = "blake2b"
)

// Size is the size of every digest in bytes.
const Size = util.Uint256Size

// Hasher is a deterministic hash function producing a fixed-width digest.
type Hasher interface {
	// Sum returns the digest of the concatenation of all parts.
	Sum(parts ...[]byte) util.Uint256
	// Name returns the name the hasher is configured by.
	Name() string
}

type stdHasher struct {
	name string
	new  func() hash.Hash
}

var (
	// SHA256 is a SHA-256 Hasher.
	SHA256 Hasher = stdHasher{name: SHA256Name, new: sha256.New}
	// Keccak256 is an Ethereum-flavoured (legacy padding) Keccak-256 Hasher.
	Keccak256 Hasher = stdHasher{name: Keccak256Name, new: sha3.NewLegacyKeccak256}
	// Blake2b is a BLAKE2b-256 Hasher.
	Blake2b Hasher = stdHasher{name: Blake2bName, new: newBlake2b}
)

func newBlake2b() hash.Hash {
	h, _ := blake2b.New256(nil) // Never errors without a key.
	return h
}

// Sum implements Hasher interface.
func (h stdHasher) Sum(parts ...[]byte) util.Uint256 {
	var res util.Uint256
	hh := h.new()
	for _, p := range parts {
		_, _ = hh.Write(p) // hash.Hash writes never fail
	}
	copy(res[:], hh.Sum(nil))
	return res
}

// Name implements Hasher interface.
func (h stdHasher) Name() string {
	return h.name
}

// New returns a Hasher by its name. An empty name selects SHA256.
func New(name string) (Hasher, error) {
	switch name {
	case SHA256Name, "":
		return SHA256, nil
	case Keccak256Name:
		return Keccak256, nil
	case Blake2bName:
		return Blake2b, nil
	default:
		return nil, fmt.Errorf("unknown hash function: %q", name)
	}
}
