package mpt

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/nspcc-dev/mptindex/pkg/core/storage"
	"github.com/nspcc-dev/mptindex/pkg/crypto/hash"
	"github.com/nspcc-dev/mptindex/pkg/util"
)

const (
	// MaxKeyLength is the max length of the key to put in the trie.
	MaxKeyLength = storage.MaxStorageKeyLen
	// MaxValueLength is the max length of a leaf node value.
	MaxValueLength = storage.MaxStorageValueLen
)

// Config describes how keys are placed into the trie.
type Config struct {
	// Hasher is the hash function used for node digests and hashed paths,
	// SHA256 is used if not set.
	Hasher hash.Hasher
	// HashedPaths makes the routing path of a key to be derived from the
	// key digest instead of the key itself. It gives uniform branching and
	// fixed depth independent of key distribution. Without it all keys of
	// a trie must have the same length.
	HashedPaths bool
}

// Trie is an immutable MPT trie storing key-value pairs. Every modification
// returns a new Trie sharing unchanged subtrees with the old one, so Trie
// values can be freely used by concurrent readers.
type Trie struct {
	hasher      hash.Hasher
	hashedPaths bool
	root        Node
	// pathLen is the number of nibbles in every routing path, 0 if unknown
	// yet (only possible for an empty trie with raw paths).
	pathLen int
}

// NewTrie returns new empty MPT trie.
func NewTrie(cfg Config) *Trie {
	h := cfg.Hasher
	if h == nil {
		h = hash.SHA256
	}
	t := &Trie{
		hasher:      h,
		hashedPaths: cfg.HashedPaths,
		root:        EmptyNode{},
	}
	if cfg.HashedPaths {
		t.pathLen = 2 * hash.Size
	}
	return t
}

// Config returns the configuration the trie was created with.
func (t *Trie) Config() Config {
	return Config{Hasher: t.hasher, HashedPaths: t.hashedPaths}
}

// Root returns the root node of t.
func (t *Trie) Root() Node {
	return t.root
}

// Hash returns the root digest of t, it's EmptyDigest for an empty trie.
func (t *Trie) Hash() util.Uint256 {
	return t.root.Hash()
}

// Size returns the number of key-value pairs in t.
func (t *Trie) Size() int {
	return t.root.Size()
}

// IsEmpty returns true if t has no entries.
func (t *Trie) IsEmpty() bool {
	return t.root.IsEmpty()
}

// withRoot returns a copy of t with the specified root.
func (t *Trie) withRoot(root Node, pathLen int) *Trie {
	return &Trie{
		hasher:      t.hasher,
		hashedPaths: t.hashedPaths,
		root:        root,
		pathLen:     pathLen,
	}
}

// routingPath returns the full nibble path for the key.
func (t *Trie) routingPath(key []byte) []byte {
	if t.hashedPaths {
		return toNibbles(t.hasher.Sum(key).BytesBE())
	}
	return toNibbles(key)
}

// Get returns value for the provided key in t.
func (t *Trie) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrNotFound
	}
	path := t.routingPath(key)
	if t.pathLen != 0 && len(path) != t.pathLen {
		return nil, ErrNotFound
	}
	return getWithPath(t.root, key, path)
}

// Has returns true if the key is present in t.
func (t *Trie) Has(key []byte) bool {
	_, err := t.Get(key)
	return err == nil
}

// getWithPath returns value the provided path in a subtrie rooting in curr.
func getWithPath(curr Node, key []byte, path []byte) ([]byte, error) {
	switch n := curr.(type) {
	case *LeafNode:
		if bytes.Equal(n.edge, path) && bytes.Equal(n.key, key) {
			return copySlice(n.value), nil
		}
	case *BranchNode:
		if len(path) > len(n.edge) && bytes.HasPrefix(path, n.edge) {
			i, rest := splitPath(path[len(n.edge):])
			return getWithPath(n.children[i], key, rest)
		}
	case EmptyNode:
	default:
		panic("invalid MPT node type")
	}
	return nil, ErrNotFound
}

// Insert returns a new trie containing all entries of t and the specified
// key-value pair. t itself is not changed. ErrDuplicateKey is returned if
// the key is already in t.
func (t *Trie) Insert(key, value []byte) (*Trie, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	} else if len(key) > MaxKeyLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrKeyTooBig, len(key))
	} else if len(value) > MaxValueLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrValueTooBig, len(value))
	}
	path := t.routingPath(key)
	if t.pathLen != 0 && len(path) != t.pathLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeyLength, t.pathLen/2, len(key))
	}
	r, err := t.putIntoNode(t.root, path, key, value)
	if err != nil {
		return nil, err
	}
	return t.withRoot(r, len(path)), nil
}

func (t *Trie) putIntoNode(curr Node, path, key, value []byte) (Node, error) {
	switch n := curr.(type) {
	case EmptyNode:
		return t.newLeaf(path, key, value)
	case *LeafNode:
		return t.putIntoLeaf(n, path, key, value)
	case *BranchNode:
		return t.putIntoBranch(n, path, key, value)
	default:
		panic("invalid MPT node type")
	}
}

// putIntoLeaf replaces curr with a branch holding both the old leaf and the
// new one.
func (t *Trie) putIntoLeaf(curr *LeafNode, path, key, value []byte) (Node, error) {
	if bytes.Equal(curr.edge, path) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, hex.EncodeToString(key))
	}
	pref := lcp(curr.edge, path)
	lp := len(pref)
	if lp >= len(curr.edge) || lp >= len(path) {
		return nil, fmt.Errorf("%w: no selector nibble after common prefix of length %d",
			ErrInternalInconsistency, lp)
	}
	oldNibble, newNibble := curr.edge[lp], path[lp]
	if oldNibble == newNibble {
		return nil, fmt.Errorf("%w: selector nibbles coincide (%x)", ErrInternalInconsistency, oldNibble)
	}

	var children [childrenCount]Node
	l1, err := t.newLeaf(curr.edge[lp+1:], curr.key, curr.value)
	if err != nil {
		return nil, err
	}
	children[oldNibble] = l1
	l2, err := t.newLeaf(path[lp+1:], key, value)
	if err != nil {
		return nil, err
	}
	children[newNibble] = l2
	return newBranchNode(t.hasher, pref, children)
}

// putIntoBranch descends into the child selected by the nibble following
// curr edge, if the path diverges from the edge the branch is split.
func (t *Trie) putIntoBranch(curr *BranchNode, path, key, value []byte) (Node, error) {
	if !bytes.HasPrefix(path, curr.edge) {
		return t.splitBranch(curr, path, key, value)
	}
	if len(path) == len(curr.edge) {
		return nil, fmt.Errorf("%w: path ends at branch edge", ErrInternalInconsistency)
	}
	i, rest := splitPath(path[len(curr.edge):])
	r, err := t.putIntoNode(curr.children[i], rest, key, value)
	if err != nil {
		return nil, err
	}
	children := curr.children
	children[i] = r
	return newBranchNode(t.hasher, curr.edge, children)
}

// splitBranch puts a new branch above curr with the edge being the common
// prefix of curr edge and the path. curr goes into one slot with its edge
// shortened, a new leaf goes into another one.
func (t *Trie) splitBranch(curr *BranchNode, path, key, value []byte) (Node, error) {
	pref := lcp(curr.edge, path)
	lp := len(pref)
	if lp >= len(path) {
		return nil, fmt.Errorf("%w: path is a prefix of branch edge", ErrInternalInconsistency)
	}
	oldNibble, newNibble := curr.edge[lp], path[lp]
	if oldNibble == newNibble {
		return nil, fmt.Errorf("%w: selector nibbles coincide (%x)", ErrInternalInconsistency, oldNibble)
	}

	var children [childrenCount]Node
	b, err := newBranchNode(t.hasher, curr.edge[lp+1:], curr.children)
	if err != nil {
		return nil, err
	}
	children[oldNibble] = b
	l, err := t.newLeaf(path[lp+1:], key, value)
	if err != nil {
		return nil, err
	}
	children[newNibble] = l
	return newBranchNode(t.hasher, pref, children)
}

// newLeaf creates a leaf node checking that edge is a suffix of the key
// routing path.
func (t *Trie) newLeaf(edge, key, value []byte) (*LeafNode, error) {
	if !bytes.HasSuffix(t.routingPath(key), edge) {
		return nil, fmt.Errorf("%w: key %s doesn't end with the leaf edge",
			ErrStructuralInvariant, hex.EncodeToString(key))
	}
	return NewLeafNode(t.hasher, edge, key, value)
}

// Walk calls f for every key-value pair in t in routing path order until f
// returns false. Key and value passed to f are copies.
func (t *Trie) Walk(f func(key, value []byte) bool) {
	walk(t.root, f)
}

func walk(curr Node, f func(key, value []byte) bool) bool {
	switch n := curr.(type) {
	case *LeafNode:
		return f(copySlice(n.key), copySlice(n.value))
	case *BranchNode:
		for i := range n.children {
			if !walk(n.children[i], f) {
				return false
			}
		}
	}
	return true
}
