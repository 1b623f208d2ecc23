package mpt

import (
	"fmt"
	"strings"

	"github.com/nspcc-dev/mptindex/pkg/util"
	"github.com/xlab/treeprint"
)

const (
	// DigestSummaryLength is the number of hex digits shown for digests.
	DigestSummaryLength = 12
	// PrefixCutoff is the max number of nibbles shown for edges and keys.
	PrefixCutoff = 8
)

const hexDigits = "0123456789abcdef"

func summarizeDigest(d util.Uint256) string {
	return d.StringBE()[:DigestSummaryLength]
}

// formatPath prints nibbles as hex digits cutting it after PrefixCutoff
// ones.
func formatPath(nibbles []byte) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, n := range nibbles {
		if i == PrefixCutoff {
			sb.WriteString("…")
			break
		}
		sb.WriteByte(hexDigits[n&0x0F])
	}
	sb.WriteByte(']')
	return sb.String()
}

func leafLine(l *LeafNode) string {
	return fmt.Sprintf("leaf %s key=%s %s", formatPath(l.edge), formatPath(toNibbles(l.key)), summarizeDigest(l.hash))
}

func branchLine(b *BranchNode) string {
	return fmt.Sprintf("branch %s size=%d %s", formatPath(b.edge), b.size, summarizeDigest(b.hash))
}

// String returns human-readable representation of the trie structure.
func (t *Trie) String() string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("trie size=%d root=%s", t.Size(), summarizeDigest(t.Hash())))
	switch n := t.root.(type) {
	case *LeafNode:
		tree.AddNode(leafLine(n))
	case *BranchNode:
		addChildren(tree.AddBranch(branchLine(n)), n)
	}
	return tree.String()
}

func addChildren(tree treeprint.Tree, b *BranchNode) {
	for i, c := range b.children {
		meta := string(hexDigits[i])
		switch c := c.(type) {
		case *LeafNode:
			tree.AddMetaNode(meta, leafLine(c))
		case *BranchNode:
			addChildren(tree.AddMetaBranch(meta, branchLine(c)), c)
		}
	}
}
