package mpt

import (
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/mptindex/pkg/core/storage"
	"github.com/nspcc-dev/mptindex/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/mptindex/pkg/crypto/hash"
	"github.com/nspcc-dev/mptindex/pkg/util"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore() *storage.MemCachedStore {
	return storage.NewMemCachedStore(storage.NewMemoryStore())
}

type storeSetup struct {
	name   string
	create func(testing.TB) storage.Store
}

var storeSetups = []storeSetup{
	{"Memory", func(t testing.TB) storage.Store { return storage.NewMemoryStore() }},
	{"MemCached", func(t testing.TB) storage.Store { return newTestStore() }},
	{"LevelDB", func(t testing.TB) storage.Store {
		s, err := storage.NewLevelDBStore(dbconfig.LevelDBOptions{DataDirectoryPath: t.TempDir()})
		require.NoError(t, err)
		return s
	}},
	{"BoltDB", func(t testing.TB) storage.Store {
		s, err := storage.NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "test_bolt_db")})
		require.NoError(t, err)
		return s
	}},
}

func TestTrieStore_FlushLoad(t *testing.T) {
	for _, setup := range storeSetups {
		t.Run(setup.name, func(t *testing.T) {
			s := setup.create(t)
			t.Cleanup(func() { require.NoError(t, s.Close()) })

			cfg := Config{HashedPaths: true}
			keys, values := testRandomPairs(100, 8)
			tr := insertAll(t, NewTrie(cfg), keys, values)

			ts := NewTrieStore(s, cfg, 0, zaptest.NewLogger(t))
			require.NoError(t, ts.Flush(tr))
			root, err := ts.RootHash()
			require.NoError(t, err)
			require.Equal(t, tr.Hash(), root)

			loaded, err := NewTrieStore(s, cfg, 10, nil).Load()
			require.NoError(t, err)
			require.Equal(t, tr.Hash(), loaded.Hash())
			require.Equal(t, tr.Size(), loaded.Size())
			require.True(t, isValid(loaded, loaded.Root()))
			for i := range keys {
				loaded.testHas(t, keys[i], values[i])
			}

			// Loaded trie is a regular one.
			loaded, err = loaded.Insert([]byte("new key"), []byte("new value"))
			require.NoError(t, err)
			loaded.testHas(t, []byte("new key"), []byte("new value"))
		})
	}
}

func TestTrieStore_Empty(t *testing.T) {
	s := newTestStore()
	ts := NewTrieStore(s, Config{}, 0, nil)

	root, err := ts.RootHash()
	require.NoError(t, err)
	require.Equal(t, EmptyDigest, root)

	tr, err := ts.Load()
	require.NoError(t, err)
	require.True(t, tr.IsEmpty())

	require.NoError(t, ts.Flush(tr))
	require.Equal(t, 0, ts.StoredNodes())
	root, err = ts.RootHash()
	require.NoError(t, err)
	require.Equal(t, EmptyDigest, root)

	tr, err = ts.Load()
	require.NoError(t, err)
	require.True(t, tr.IsEmpty())

	// Key length is learned from the first insertion after loading.
	tr, err = tr.Insert([]byte{1, 2}, []byte{1})
	require.NoError(t, err)
	_, err = tr.Insert([]byte{1}, []byte{1})
	require.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestTrieStore_RawPaths(t *testing.T) {
	// Subtrees under 1 and 2 are equal and share the digest, keys must be
	// restored from the position.
	keys := [][]byte{{0x10, 0x00}, {0x10, 0x01}, {0x20, 0x00}, {0x20, 0x01}}
	values := [][]byte{{1}, {2}, {1}, {2}}
	tr := insertAll(t, NewTrie(Config{}), keys, values)
	b := tr.Root().(*BranchNode)
	require.Equal(t, b.Child(1).Hash(), b.Child(2).Hash())

	s := newTestStore()
	ts := NewTrieStore(s, Config{}, 0, nil)
	require.NoError(t, ts.Flush(tr))
	require.Equal(t, 4, ts.StoredNodes())

	loaded, err := NewTrieStore(s, Config{}, 0, nil).Load()
	require.NoError(t, err)
	require.Equal(t, tr.Hash(), loaded.Hash())

	var walked [][]byte
	loaded.Walk(func(k, v []byte) bool {
		walked = append(walked, k)
		return true
	})
	require.Equal(t, keys, walked)

	_, err = loaded.Insert([]byte{0x30}, []byte{1})
	require.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestTrieStore_Incremental(t *testing.T) {
	s := newTestStore()
	cfg := Config{HashedPaths: true}
	ts := NewTrieStore(s, cfg, 0, nil)

	keys, values := testRandomPairs(20, 4)
	tr1 := insertAll(t, NewTrie(cfg), keys[:10], values[:10])
	require.NoError(t, ts.Flush(tr1))
	n1 := ts.StoredNodes()
	require.NoError(t, ts.Flush(tr1))
	require.Equal(t, n1, ts.StoredNodes())

	tr2 := insertAll(t, tr1, keys[10:], values[10:])
	require.NoError(t, ts.Flush(tr2))
	require.True(t, ts.StoredNodes() > n1)
	require.Equal(t, float64(tr2.Size()), testutil.ToFloat64(persistedSize))

	loaded, err := ts.Load()
	require.NoError(t, err)
	require.Equal(t, tr2.Hash(), loaded.Hash())

	// Older roots remain available.
	old, err := ts.LoadRoot(tr1.Hash())
	require.NoError(t, err)
	require.Equal(t, tr1.Size(), old.Size())
	old.testHas(t, keys[0], values[0])
	old.testHas(t, keys[15], nil)
}

func TestTrieStore_Corrupted(t *testing.T) {
	cfg := Config{HashedPaths: true}
	keys, values := testRandomPairs(10, 4)
	tr := insertAll(t, NewTrie(cfg), keys, values)
	b := tr.Root().(*BranchNode)

	var leaves []Node
	var collect func(n Node)
	collect = func(n Node) {
		switch n := n.(type) {
		case *LeafNode:
			leaves = append(leaves, n)
		case *BranchNode:
			for i := range n.children {
				collect(n.children[i])
			}
		}
	}
	collect(b)
	require.Equal(t, 10, len(leaves))

	prepare := func(t *testing.T) storage.Store {
		s := newTestStore()
		require.NoError(t, NewTrieStore(s, cfg, 0, nil).Flush(tr))
		return s
	}

	t.Run("swapped leaf", func(t *testing.T) {
		s := prepare(t)
		require.NoError(t, s.Put(makeStorageKey(leaves[0].Hash()), encodeNode(leaves[1])))
		_, err := NewTrieStore(s, cfg, 0, nil).Load()
		require.ErrorIs(t, err, ErrCorruptedNode)
	})
	t.Run("garbage", func(t *testing.T) {
		s := prepare(t)
		require.NoError(t, s.Put(makeStorageKey(b.Hash()), []byte{0x42, 0x42}))
		_, err := NewTrieStore(s, cfg, 0, nil).Load()
		require.ErrorIs(t, err, ErrCorruptedNode)
	})
	t.Run("missing node", func(t *testing.T) {
		s := prepare(t)
		require.NoError(t, s.PutChangeSet(map[string][]byte{
			string(makeStorageKey(leaves[3].Hash())): nil,
		}))
		_, err := NewTrieStore(s, cfg, 0, nil).Load()
		require.ErrorIs(t, err, storage.ErrKeyNotFound)
	})
	t.Run("bad root", func(t *testing.T) {
		s := prepare(t)
		require.NoError(t, s.Put(RootKey, []byte{1, 2, 3}))
		_, err := NewTrieStore(s, cfg, 0, nil).Load()
		require.ErrorIs(t, err, ErrCorruptedNode)
	})
	t.Run("unknown root", func(t *testing.T) {
		s := prepare(t)
		_, err := NewTrieStore(s, cfg, 0, nil).LoadRoot(util.Uint256{1, 2, 3})
		require.ErrorIs(t, err, storage.ErrKeyNotFound)
	})
}

func TestTrieStore_ConfigMismatch(t *testing.T) {
	s := newTestStore()
	cfg := Config{HashedPaths: true}
	tr := insertAll(t, NewTrie(cfg), [][]byte{[]byte("key")}, [][]byte{[]byte("value")})
	require.NoError(t, NewTrieStore(s, cfg, 0, nil).Flush(tr))

	keccak := Config{Hasher: hash.Keccak256, HashedPaths: true}
	ts := NewTrieStore(s, keccak, 0, nil)
	require.ErrorIs(t, ts.Flush(tr), ErrConfigMismatch)
	_, err := ts.Load()
	require.ErrorIs(t, err, ErrConfigMismatch)

	kt := insertAll(t, NewTrie(keccak), [][]byte{[]byte("key")}, [][]byte{[]byte("value")})
	require.ErrorIs(t, ts.Flush(kt), ErrConfigMismatch)

	_, err = NewTrieStore(s, Config{}, 0, nil).Load()
	require.ErrorIs(t, err, ErrConfigMismatch)
}

type changeSetCounter struct {
	storage.Store
	sets int
	keys int
}

func (c *changeSetCounter) PutChangeSet(puts map[string][]byte) error {
	c.sets++
	c.keys += len(puts)
	return c.Store.PutChangeSet(puts)
}

func TestTrieStore_FlushChangeSet(t *testing.T) {
	s := &changeSetCounter{Store: storage.NewMemoryStore()}
	ts := NewTrieStore(s, Config{}, 0, nil)

	// Root branch with two leaves, the leaf records are the same.
	tr := insertAll(t, NewTrie(Config{}), [][]byte{{0x10}, {0x20}}, [][]byte{{1}, {1}})
	require.NoError(t, ts.Flush(tr))
	require.Equal(t, 1, s.sets)
	require.Equal(t, 2+2, s.keys) // Nodes, root and config record.
	require.Equal(t, 2, ts.StoredNodes())

	require.NoError(t, ts.Flush(tr))
	require.Equal(t, 2, s.sets)
	require.Equal(t, 4+2, s.keys)
	require.Equal(t, 2, ts.StoredNodes())
}
