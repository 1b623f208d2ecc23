package mpt

import (
	"testing"

	"github.com/nspcc-dev/mptindex/pkg/crypto/hash"
	"github.com/nspcc-dev/mptindex/pkg/io"
	"github.com/stretchr/testify/require"
)

func TestCodec_Leaf(t *testing.T) {
	l := newTestLeaf(t, []byte{1, 2, 3}, []byte{0xAB, 0x12, 0x3C}, []byte("value"))
	data := encodeNode(l)
	require.Equal(t, byte(LeafT), data[0])

	rec, err := decodeNode(data)
	require.NoError(t, err)
	require.Equal(t, LeafT, rec.typ)
	require.Equal(t, []byte{1, 2, 3}, rec.edge)
	require.Equal(t, []byte{0xAB, 0x12, 0x3C}, rec.key)
	require.Equal(t, []byte("value"), rec.value)

	t.Run("empty value", func(t *testing.T) {
		l := newTestLeaf(t, []byte{}, []byte{0x12}, nil)
		rec, err := decodeNode(encodeNode(l))
		require.NoError(t, err)
		require.Equal(t, 0, len(rec.value))
		require.Equal(t, 0, len(rec.edge))
	})
}

func TestCodec_Branch(t *testing.T) {
	l1 := newTestLeaf(t, []byte{}, []byte{0x12}, []byte{1})
	l2 := newTestLeaf(t, []byte{}, []byte{0x1F}, []byte{2})
	children := make([]Node, childrenCount)
	children[2], children[0xF] = l1, l2
	b, err := NewBranchNode(hash.SHA256, []byte{1}, children)
	require.NoError(t, err)

	data := encodeNode(b)
	require.Equal(t, 1+1+1+childrenCount*hash.Size, len(data))

	rec, err := decodeNode(data)
	require.NoError(t, err)
	require.Equal(t, BranchT, rec.typ)
	require.Equal(t, []byte{1}, rec.edge)
	for i := range rec.children {
		switch i {
		case 2:
			require.Equal(t, l1.Hash(), rec.children[i])
		case 0xF:
			require.Equal(t, l2.Hash(), rec.children[i])
		default:
			require.True(t, rec.children[i].IsZero())
		}
	}
}

func TestCodec_Invalid(t *testing.T) {
	l := newTestLeaf(t, []byte{1, 2}, []byte{0x12}, []byte("value"))
	good := encodeNode(l)

	encodeRaw := func(typ NodeType, path []byte, rest ...[]byte) []byte {
		w := io.NewBufBinWriter()
		w.WriteB(byte(typ))
		w.WriteVarBytes(path)
		for _, r := range rest {
			w.WriteVarBytes(r)
		}
		return w.Bytes()
	}

	for name, data := range map[string][]byte{
		"empty":             {},
		"empty node type":   {byte(EmptyT)},
		"unknown node type": encodeRaw(0x42, EncodePath([]byte{1}, true), []byte{0x11}, []byte{}),
		"terminal branch":   append(encodeRaw(BranchT, EncodePath([]byte{1}, true)), make([]byte, childrenCount*hash.Size)...),
		"non-terminal leaf": encodeRaw(LeafT, EncodePath([]byte{1}, false), []byte{0x11}, []byte{}),
		"bad path":          encodeRaw(LeafT, []byte{0x45}, []byte{0x11}, []byte{}),
		"truncated":         good[:len(good)-1],
		"trailing bytes":    append(append([]byte{}, good...), 0),
		"short branch":      encodeRaw(BranchT, EncodePath([]byte{1}, false), make([]byte, 10)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeNode(data)
			require.Error(t, err)
		})
	}
}
