package mpt

import (
	"github.com/nspcc-dev/mptindex/pkg/util"
)

// EmptyNode represents empty node.
type EmptyNode struct{}

var _ Node = EmptyNode{}

// Hash implements Node interface.
func (e EmptyNode) Hash() util.Uint256 {
	return EmptyDigest
}

// Size implements Node interface.
func (e EmptyNode) Size() int { return 0 }

// IsEmpty implements Node interface.
func (e EmptyNode) IsEmpty() bool { return true }

// Type implements Node interface.
func (e EmptyNode) Type() NodeType { return EmptyT }

// Edge implements Node interface.
func (e EmptyNode) Edge() []byte { return nil }

func isEmpty(n Node) bool {
	return n == nil || n.IsEmpty()
}
