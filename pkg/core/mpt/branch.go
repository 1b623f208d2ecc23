package mpt

import (
	"fmt"

	"github.com/nspcc-dev/mptindex/pkg/crypto/hash"
	"github.com/nspcc-dev/mptindex/pkg/util"
)

const (
	// childrenCount represents the number of children of a branch node.
	childrenCount = 16
	// minChildren is the minimal number of non-empty children of a branch.
	minChildren = 2
)

// BranchNode represents MPT's branch node. Children are selected by the
// nibble following the branch edge.
type BranchNode struct {
	hash     util.Uint256
	edge     []byte
	children [childrenCount]Node
	size     int
}

var _ Node = (*BranchNode)(nil)

// NewBranchNode returns a branch node with the specified edge and children.
// children must have exactly 16 elements at least 2 of which are not empty,
// nil elements are treated as empty ones.
func NewBranchNode(h hash.Hasher, edge []byte, children []Node) (*BranchNode, error) {
	if len(children) != childrenCount {
		return nil, fmt.Errorf("%w: branch must have exactly %d children, got %d",
			ErrStructuralInvariant, childrenCount, len(children))
	}
	var arr [childrenCount]Node
	copy(arr[:], children)
	return newBranchNode(h, edge, arr)
}

func newBranchNode(h hash.Hasher, edge []byte, children [childrenCount]Node) (*BranchNode, error) {
	var count, size int
	for i := range children {
		if isEmpty(children[i]) {
			children[i] = EmptyNode{}
			continue
		}
		count++
		size += children[i].Size()
	}
	if count < minChildren {
		return nil, fmt.Errorf("%w: branch must have at least %d children, got %d",
			ErrStructuralInvariant, minChildren, count)
	}
	root := MerkleRoot(h, &children)
	d, err := BranchDigest(h, edge, root.BytesBE())
	if err != nil {
		return nil, err
	}
	return &BranchNode{
		hash:     d,
		edge:     copySlice(edge),
		children: children,
		size:     size,
	}, nil
}

// Hash implements Node interface.
func (b *BranchNode) Hash() util.Uint256 { return b.hash }

// Size implements Node interface.
func (b *BranchNode) Size() int { return b.size }

// IsEmpty implements Node interface.
func (b *BranchNode) IsEmpty() bool { return false }

// Type implements Node interface.
func (b *BranchNode) Type() NodeType { return BranchT }

// Edge implements Node interface.
func (b *BranchNode) Edge() []byte { return copySlice(b.edge) }

// Child returns the child at the specified slot, it's never nil.
func (b *BranchNode) Child(i byte) Node { return b.children[i] }

// Children returns a copy of the children array.
func (b *BranchNode) Children() [childrenCount]Node { return b.children }
