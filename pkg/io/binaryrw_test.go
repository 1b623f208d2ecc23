package io

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type badRW struct{}

func (w *badRW) Write(p []byte) (int, error) {
	return 0, errors.New("it always fails")
}

func (w *badRW) Read(p []byte) (int, error) {
	return w.Write(p)
}

func TestWriteVarUint(t *testing.T) {
	for _, tc := range []struct {
		val  uint64
		size int
	}{
		{0, 1},
		{0xfc, 1},
		{0xfd, 3},
		{0xfffe, 3},
		{0xffff, 5},
		{0xfffffffe, 5},
		{0xffffffff, 9},
		{0xffffffffffffffff, 9},
	} {
		bw := NewBufBinWriter()
		bw.writeVarUint(tc.val)
		require.NoError(t, bw.Err)
		buf := bw.Bytes()
		require.Equal(t, tc.size, len(buf))

		br := NewBinReaderFromBuf(buf)
		require.Equal(t, tc.val, br.ReadVarUint())
		require.NoError(t, br.Err)
		require.Equal(t, 0, br.Len())
	}
}

func TestWriteReadVarBytes(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	bw := NewBufBinWriter()
	bw.WriteVarBytes(data)
	bw.WriteB(0x42)
	require.NoError(t, bw.Err)
	buf := bw.Bytes()

	br := NewBinReaderFromBuf(buf)
	assert.Equal(t, data, br.ReadVarBytes())
	assert.Equal(t, byte(0x42), br.ReadB())
	require.NoError(t, br.Err)

	t.Run("too big", func(t *testing.T) {
		br := NewBinReaderFromBuf(buf)
		require.Nil(t, br.ReadVarBytes(len(data)-1))
		require.Error(t, br.Err)
	})
	t.Run("truncated", func(t *testing.T) {
		br := NewBinReaderFromBuf(buf[:3])
		require.Nil(t, br.ReadVarBytes())
		require.Error(t, br.Err)
	})
}

func TestBufBinWriter_Drained(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteB(1)
	require.Equal(t, []byte{1}, bw.Bytes())
	require.Nil(t, bw.Bytes())
	require.Error(t, bw.Err)

	bw.WriteB(2)
	require.Error(t, bw.Err)
}

func TestBadIO(t *testing.T) {
	w := NewBinWriterFromIO(&badRW{})
	w.WriteVarBytes([]byte{1, 2})
	require.Error(t, w.Err)

	r := NewBinReaderFromIO(&badRW{})
	require.Equal(t, byte(0), r.ReadB())
	require.Error(t, r.Err)
	require.Equal(t, uint64(0), r.ReadVarUint())
	require.Equal(t, -1, r.Len())
}
