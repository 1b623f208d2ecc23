package mpt

import (
	"fmt"

	"github.com/nspcc-dev/mptindex/pkg/crypto/hash"
	"github.com/nspcc-dev/mptindex/pkg/util"
)

// EmptyDigest is the digest of an empty trie. It's never produced by a hash
// function in practice.
var EmptyDigest util.Uint256

// LeafDigest returns H(EncodePath(edge, true) || valueDigest). valueDigest
// must be exactly hash.Size bytes long. The edge goes into the preimage
// hex-prefix encoded with the terminal flag, not as raw nibbles.
func LeafDigest(h hash.Hasher, edge []byte, valueDigest []byte) (util.Uint256, error) {
	if len(valueDigest) != hash.Size {
		return util.Uint256{}, fmt.Errorf("%w: value must be a %d-byte digest, got %d bytes",
			ErrInvalidValueWidth, hash.Size, len(valueDigest))
	}
	return h.Sum(EncodePath(edge, true), valueDigest), nil
}

// BranchDigest returns H(EncodePath(edge, false) || root) where root is the
// merkle root of branch children. Unlike a plain H(edge || root) the edge is
// hex-prefix encoded without the terminal flag, so a branch preimage never
// equals a leaf one and odd-length edges are unambiguous.
func BranchDigest(h hash.Hasher, edge []byte, root []byte) (util.Uint256, error) {
	if len(root) != hash.Size {
		return util.Uint256{}, fmt.Errorf("%w: root must be a %d-byte digest, got %d bytes",
			ErrInvalidValueWidth, hash.Size, len(root))
	}
	return h.Sum(EncodePath(edge, false), root), nil
}

// MerkleRoot returns the digest of all 16 children digests concatenated in
// slot order, empty slots contribute EmptyDigest.
func MerkleRoot(h hash.Hasher, children *[childrenCount]Node) util.Uint256 {
	var buf [childrenCount * hash.Size]byte
	for i, c := range children {
		if c == nil || c.IsEmpty() {
			continue // EmptyDigest is all zeroes.
		}
		d := c.Hash()
		copy(buf[i*hash.Size:], d[:])
	}
	return h.Sum(buf[:])
}
