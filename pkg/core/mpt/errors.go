package mpt

import "errors"

var (
	// ErrNotFound is returned when requested trie item is missing.
	ErrNotFound = errors.New("item not found")
	// ErrDuplicateKey is returned on an attempt to insert a key that is
	// already present in the trie.
	ErrDuplicateKey = errors.New("key already in trie")
	// ErrInvalidValueWidth is returned when a value that must be a digest
	// has a length different from the digest size.
	ErrInvalidValueWidth = errors.New("invalid digest width")
	// ErrStructuralInvariant is returned on an attempt to build a node that
	// violates trie structure rules (like a branch with a single child).
	// It always means a bug in the calling code.
	ErrStructuralInvariant = errors.New("structural invariant violation")
	// ErrInternalInconsistency means insertion logic has found paths that
	// can't be split, it's a bug in prefix computation.
	ErrInternalInconsistency = errors.New("internal inconsistency")
	// ErrEmptyKey is returned on an attempt to insert an empty key.
	ErrEmptyKey = errors.New("empty key")
	// ErrInvalidKeyLength is returned for keys which length differs from
	// the one used by the trie with raw (non-hashed) paths.
	ErrInvalidKeyLength = errors.New("invalid key length")
	// ErrKeyTooBig is returned for keys longer than MaxKeyLength.
	ErrKeyTooBig = errors.New("key is too big")
	// ErrValueTooBig is returned for values longer than MaxValueLength.
	ErrValueTooBig = errors.New("value is too big")
	// ErrCorruptedNode is returned when a node read from the storage
	// doesn't match the digest it's stored by.
	ErrCorruptedNode = errors.New("corrupted node")
	// ErrConfigMismatch is returned when a trie is flushed into or loaded
	// from the storage holding nodes of a differently configured trie.
	ErrConfigMismatch = errors.New("trie configuration mismatch")
)
