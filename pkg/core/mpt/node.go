package mpt

import (
	"github.com/nspcc-dev/mptindex/pkg/util"
)

// NodeType represents node type.
type NodeType byte

// Node types definitions.
const (
	BranchT NodeType = 0x00
	LeafT   NodeType = 0x01
	EmptyT  NodeType = 0x02
)

// String implements fmt.Stringer.
func (t NodeType) String() string {
	switch t {
	case BranchT:
		return "branch"
	case LeafT:
		return "leaf"
	case EmptyT:
		return "empty"
	default:
		return "unknown"
	}
}

// Node represents common interface of all MPT nodes. Nodes are immutable,
// digest and size are computed when the node is created.
type Node interface {
	// Hash returns the digest committing to the whole subtree.
	Hash() util.Uint256
	// Size returns the number of leaves in the subtree.
	Size() int
	// IsEmpty returns true for the node representing no entries.
	IsEmpty() bool
	// Type returns the node type.
	Type() NodeType
	// Edge returns the part of the routing path consumed by the node.
	Edge() []byte
}
