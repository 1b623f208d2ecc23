package mpt

import (
	"bytes"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/mptindex/pkg/core/storage"
	"github.com/nspcc-dev/mptindex/pkg/crypto/hash"
	"github.com/nspcc-dev/mptindex/pkg/util"
	"go.uber.org/zap"
)

// DefaultCacheSize is the default number of node records and flushed node
// digests kept in memory by TrieStore.
const DefaultCacheSize = 10000

// RootKey is a special storage key for storing and retrieving the root digest
// of the trie, so that the root (and with it the whole trie) can always be
// recovered after restart.
var RootKey = []byte("__root__")

// TrieStore persists tries in the storage. Every node is stored by its digest
// (with storage.DataMPT prefix), the digest of the last flushed trie is
// stored by RootKey.
type TrieStore struct {
	store storage.Store
	cfg   Config
	log   *zap.Logger

	// records caches decoded node records by digest.
	records *lru.Cache
	// flushed caches digests of the subtrees known to be in the storage.
	flushed *lru.Cache
}

// NewTrieStore returns a TrieStore using s for node storage. Tries flushed
// into and loaded from it use cfg. Non-positive cacheSize means
// DefaultCacheSize, nil log disables logging.
func NewTrieStore(s storage.Store, cfg Config, cacheSize int, log *zap.Logger) *TrieStore {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Hasher == nil {
		cfg.Hasher = hash.SHA256
	}
	records, _ := lru.New(cacheSize) // Never errors for positive size.
	flushed, _ := lru.New(cacheSize) // Never errors for positive size.
	return &TrieStore{
		store:   s,
		cfg:     cfg,
		log:     log,
		records: records,
		flushed: flushed,
	}
}

func makeStorageKey(d util.Uint256) []byte {
	return storage.AppendPrefix(storage.DataMPT, d[:])
}

// configRecord returns the description of trie configuration stored along
// with the root, so that nodes are never read with a different hasher.
func configRecord(cfg Config) []byte {
	paths := "raw"
	if cfg.HashedPaths {
		paths = "hashed"
	}
	return []byte(cfg.Hasher.Name() + ":" + paths)
}

func (s *TrieStore) checkStoredConfig() error {
	data, err := s.store.Get(storage.DataMPTAux.Bytes())
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if expected := configRecord(s.cfg); !bytes.Equal(data, expected) {
		return fmt.Errorf("%w: stored %q, configured %q", ErrConfigMismatch, data, expected)
	}
	return nil
}

// Flush puts every node of t that is not yet known to be in the storage and
// the root digest of t into the storage. All of them are staged in a
// storage.MemCachedStore and persisted as a single change set.
func (s *TrieStore) Flush(t *Trie) error {
	if t.hasher.Name() != s.cfg.Hasher.Name() || t.hashedPaths != s.cfg.HashedPaths {
		return fmt.Errorf("%w: trie uses %q, store uses %q",
			ErrConfigMismatch, configRecord(t.Config()), configRecord(s.cfg))
	}
	if err := s.checkStoredConfig(); err != nil {
		return err
	}
	var (
		batch   = storage.NewMemCachedStore(s.store)
		digests []util.Uint256
		root    = t.Hash()
	)
	s.collect(t.root, batch, &digests)
	_ = batch.Put(RootKey, root[:])
	_ = batch.Put(storage.DataMPTAux.Bytes(), configRecord(s.cfg))
	keys, err := batch.Persist()
	if err != nil {
		return fmt.Errorf("failed to persist trie: %w", err)
	}
	for _, d := range digests {
		s.flushed.Add(d, struct{}{})
	}
	addFlushedNodesMetric(len(digests))
	updatePersistedSizeMetric(t.Size())
	s.log.Debug("trie flushed",
		zap.Stringer("root", root),
		zap.Int("nodes", len(digests)),
		zap.Int("keys", keys),
		zap.Int("size", t.Size()))
	return nil
}

// collect puts records of n and all of its descendants that are not known
// to be flushed into batch.
func (s *TrieStore) collect(n Node, batch *storage.MemCachedStore, digests *[]util.Uint256) {
	if isEmpty(n) {
		return
	}
	d := n.Hash()
	key := makeStorageKey(d)
	if _, err := batch.MemoryStore.Get(key); err == nil || s.flushed.Contains(d) {
		return
	}
	if b, ok := n.(*BranchNode); ok {
		for i := range b.children {
			s.collect(b.children[i], batch, digests)
		}
	}
	_ = batch.Put(key, encodeNode(n)) // Never errors.
	*digests = append(*digests, d)
}

// StoredNodes returns the number of node records in the storage. Records of
// all flushed tries are counted, not only the ones reachable from the last
// root.
func (s *TrieStore) StoredNodes() int {
	var n int
	s.store.Seek(storage.DataMPT.Bytes(), func(k, v []byte) bool {
		n++
		return true
	})
	return n
}

// RootHash returns the digest of the last flushed trie, EmptyDigest if
// nothing was flushed yet.
func (s *TrieStore) RootHash() (util.Uint256, error) {
	data, err := s.store.Get(RootKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return EmptyDigest, nil
	}
	if err != nil {
		return util.Uint256{}, err
	}
	root, err := util.Uint256DecodeBytesBE(data)
	if err != nil {
		return util.Uint256{}, fmt.Errorf("%w: bad root digest: %v", ErrCorruptedNode, err) // nolint:errorlint
	}
	return root, nil
}

// Load returns the last flushed trie, an empty one if nothing was flushed.
func (s *TrieStore) Load() (*Trie, error) {
	root, err := s.RootHash()
	if err != nil {
		return nil, err
	}
	return s.LoadRoot(root)
}

// LoadRoot returns the trie with the specified root digest. Every node read
// is checked to match the digest it's stored by.
func (s *TrieStore) LoadRoot(root util.Uint256) (*Trie, error) {
	t := NewTrie(s.cfg)
	if root == EmptyDigest {
		return t, nil
	}
	if err := s.checkStoredConfig(); err != nil {
		return nil, err
	}
	n, err := s.resolve(t, root, []byte{})
	if err != nil {
		return nil, err
	}
	pathLen := t.pathLen
	if pathLen == 0 {
		pathLen = firstPathLength(n, 0)
	}
	s.log.Debug("trie loaded", zap.Stringer("root", root), zap.Int("size", n.Size()))
	return t.withRoot(n, pathLen), nil
}

// firstPathLength returns the routing path length of the leftmost leaf.
func firstPathLength(n Node, depth int) int {
	switch n := n.(type) {
	case *LeafNode:
		return depth + len(n.edge)
	case *BranchNode:
		for i := range n.children {
			if !isEmpty(n.children[i]) {
				return firstPathLength(n.children[i], depth+len(n.edge)+1)
			}
		}
	}
	return depth
}

// resolve restores the node with digest d located at prefix path.
func (s *TrieStore) resolve(t *Trie, d util.Uint256, prefix []byte) (Node, error) {
	rec, err := s.getRecord(d)
	if err != nil {
		return nil, err
	}
	path := make([]byte, 0, len(prefix)+len(rec.edge)+1)
	path = append(path, prefix...)
	path = append(path, rec.edge...)

	var n Node
	switch rec.typ {
	case LeafT:
		key := rec.key
		if !t.hashedPaths {
			// Raw paths carry the key itself, it's restored from the
			// position as equal subtrees may be stored only once.
			key, err = fromNibbles(path)
			if err != nil {
				return nil, fmt.Errorf("%w: leaf %s: %v", ErrCorruptedNode, d.StringBE(), err) // nolint:errorlint
			}
		}
		if !bytes.Equal(t.routingPath(key), path) {
			return nil, fmt.Errorf("%w: leaf %s is misplaced", ErrCorruptedNode, d.StringBE())
		}
		n, err = NewLeafNode(t.hasher, rec.edge, key, rec.value)
	case BranchT:
		var children [childrenCount]Node
		for i := range rec.children {
			if rec.children[i].IsZero() {
				continue
			}
			children[i], err = s.resolve(t, rec.children[i], append(path, byte(i)))
			if err != nil {
				return nil, err
			}
		}
		n, err = newBranchNode(t.hasher, rec.edge, children)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: node %s: %v", ErrCorruptedNode, d.StringBE(), err) // nolint:errorlint
	}
	if n.Hash() != d {
		return nil, fmt.Errorf("%w: node %s has digest %s", ErrCorruptedNode, d.StringBE(), n.Hash().StringBE())
	}
	s.flushed.Add(d, struct{}{})
	return n, nil
}

func (s *TrieStore) getRecord(d util.Uint256) (*nodeRecord, error) {
	if r, ok := s.records.Get(d); ok {
		return r.(*nodeRecord), nil
	}
	data, err := s.store.Get(makeStorageKey(d))
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", d.StringBE(), err)
	}
	rec, err := decodeNode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: node %s: %v", ErrCorruptedNode, d.StringBE(), err) // nolint:errorlint
	}
	incLoadedNodesMetric()
	s.records.Add(d, rec)
	return rec, nil
}
