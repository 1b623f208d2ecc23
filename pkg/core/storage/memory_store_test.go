package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLen(t *testing.T) {
	s := NewMemoryStore()
	require.Equal(t, 0, s.Len())
	require.NoError(t, s.Put([]byte("key"), []byte("value")))
	require.Equal(t, 1, s.Len())
	require.NoError(t, s.PutChangeSet(map[string][]byte{"key": nil}))
	require.Equal(t, 0, s.Len())
}

func TestKeyNotExist(t *testing.T) {
	var (
		s   = NewMemoryStore()
		key = []byte("sparse")
	)

	_, err := s.Get(key)
	assert.NotNil(t, err)
	assert.Equal(t, err.Error(), "key not found")
	require.NoError(t, s.Close())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	value := []byte("rocks")
	require.NoError(t, s.Put([]byte("sparse"), value))
	value[0] = 'R'
	v, err := s.Get([]byte("sparse"))
	require.NoError(t, err)
	require.Equal(t, []byte("rocks"), v)
}
