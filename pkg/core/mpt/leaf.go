package mpt

import (
	"github.com/nspcc-dev/mptindex/pkg/crypto/hash"
	"github.com/nspcc-dev/mptindex/pkg/util"
)

// LeafNode represents MPT's leaf node holding a single key-value pair.
type LeafNode struct {
	hash  util.Uint256
	edge  []byte
	key   []byte
	value []byte
}

var _ Node = (*LeafNode)(nil)

// NewLeafNode returns a leaf node with the specified edge (remaining
// routing path nibbles), key and value. Slices are copied.
func NewLeafNode(h hash.Hasher, edge, key, value []byte) (*LeafNode, error) {
	d, err := LeafDigest(h, edge, h.Sum(value).BytesBE())
	if err != nil {
		return nil, err
	}
	return &LeafNode{
		hash:  d,
		edge:  copySlice(edge),
		key:   copySlice(key),
		value: copySlice(value),
	}, nil
}

// Hash implements Node interface.
func (n *LeafNode) Hash() util.Uint256 { return n.hash }

// Size implements Node interface.
func (n *LeafNode) Size() int { return 1 }

// IsEmpty implements Node interface.
func (n *LeafNode) IsEmpty() bool { return false }

// Type implements Node interface.
func (n *LeafNode) Type() NodeType { return LeafT }

// Edge implements Node interface. For a leaf below a branch it's the part
// of the routing path after the branch edge and the slot nibble, the slot
// nibble itself is not included.
func (n *LeafNode) Edge() []byte { return copySlice(n.edge) }

// Key returns a copy of the leaf key.
func (n *LeafNode) Key() []byte { return copySlice(n.key) }

// Value returns a copy of the leaf value.
func (n *LeafNode) Value() []byte { return copySlice(n.value) }
