package storage

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/mptindex/pkg/core/storage/dbconfig"
)

// KeyPrefix constants.
const (
	// DataMPT is used for MPT node entries identified by their digest.
	DataMPT KeyPrefix = 0x03
	// DataMPTAux is used to store additional MPT data.
	DataMPTAux KeyPrefix = 0x04
	// SYSVersion is used to store the storage schema version.
	SYSVersion KeyPrefix = 0xf0
)

const (
	// MaxStorageKeyLen is the maximum length of a key for storage items.
	MaxStorageKeyLen = 1024
	// MaxStorageValueLen is the maximum length of a value for storage items.
	// It is set to be the maximum value for uint16.
	MaxStorageValueLen = 65535
)

// Supported storage types.
const (
	LevelDB    = "leveldb"
	BoltDB     = "boltdb"
	InMemoryDB = "inmemory"
)

// ErrKeyNotFound is an error returned by Store implementations
// when a certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

type (
	// Store is the underlying KV backend for the trie data.
	Store interface {
		Get([]byte) ([]byte, error)
		Put(k, v []byte) error
		// PutChangeSet allows to push prepared changeset to the Store
		// atomically. nil values denote deletions.
		PutChangeSet(puts map[string][]byte) error
		// Seek calls f for every key-value pair with the given prefix in
		// ascending key order until f returns false. Key and value slices
		// are only valid until the next call to f and should not be modified.
		Seek(prefix []byte, f func(k, v []byte) bool)
		Close() error
	}

	// KeyPrefix is a constant byte added as a prefix for each key
	// stored.
	KeyPrefix uint8

	// KeyValue represents key-value pair.
	KeyValue struct {
		Key   []byte
		Value []byte
	}
)

// Bytes returns the bytes representation of KeyPrefix.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

// AppendPrefix appends byteslice b to the given KeyPrefix.
func AppendPrefix(k KeyPrefix, b []byte) []byte {
	dest := make([]byte, len(b)+1)
	dest[0] = byte(k)
	copy(dest[1:], b)
	return dest
}

// Version attempts to get the current version stored in the
// underlying store.
func Version(s Store) (string, error) {
	version, err := s.Get(SYSVersion.Bytes())
	return string(version), err
}

// PutVersion stores the given version in the underlying store.
func PutVersion(s Store, v string) error {
	return s.Put(SYSVersion.Bytes(), []byte(v))
}

// NewStore creates storage with preselected in configuration database type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	var store Store
	var err error
	switch cfg.Type {
	case LevelDB:
		store, err = NewLevelDBStore(cfg.LevelDBOptions)
	case InMemoryDB:
		store = NewMemoryStore()
	case BoltDB:
		store, err = NewBoltDBStore(cfg.BoltDBOptions)
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
	}
	return store, err
}
