package config

import (
	"fmt"

	"github.com/nspcc-dev/mptindex/pkg/core/storage"
	"github.com/nspcc-dev/mptindex/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/mptindex/pkg/crypto/hash"
	"go.uber.org/zap/zapcore"
)

// ApplicationConfiguration config specific to the application.
type ApplicationConfiguration struct {
	LogLevel        string                   `yaml:"LogLevel"`
	LogPath         string                   `yaml:"LogPath"`
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	Prometheus      BasicService             `yaml:"Prometheus"`
	Trie            Trie                     `yaml:"Trie"`
}

// Trie contains trie layout and caching settings. Changing Hasher or
// HashedPaths makes previously stored tries unreadable.
type Trie struct {
	// Hasher is the name of hash function used for digests and hashed
	// paths (sha256, keccak256 or blake2b).
	Hasher string `yaml:"Hasher"`
	// HashedPaths routes keys by their digest instead of the key itself.
	HashedPaths bool `yaml:"HashedPaths"`
	// NodeCacheSize is the number of node records cached when loading.
	NodeCacheSize int `yaml:"NodeCacheSize"`
}

// Validate checks ApplicationConfiguration for internal consistency and returns
// an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	if a.LogLevel != "" {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("invalid LogLevel: %w", err)
		}
	}
	switch a.DBConfiguration.Type {
	case storage.LevelDB:
		if a.DBConfiguration.LevelDBOptions.DataDirectoryPath == "" {
			return fmt.Errorf("empty LevelDB DataDirectoryPath")
		}
	case storage.BoltDB:
		if a.DBConfiguration.BoltDBOptions.FilePath == "" {
			return fmt.Errorf("empty BoltDB FilePath")
		}
	case storage.InMemoryDB:
	default:
		return fmt.Errorf("unknown DBConfiguration.Type: %q", a.DBConfiguration.Type)
	}
	if _, err := hash.New(a.Trie.Hasher); err != nil {
		return fmt.Errorf("invalid Trie.Hasher: %w", err)
	}
	if a.Trie.NodeCacheSize < 0 {
		return fmt.Errorf("negative Trie.NodeCacheSize: %d", a.Trie.NodeCacheSize)
	}
	if a.Prometheus.Enabled && len(a.Prometheus.Addresses) == 0 {
		return fmt.Errorf("no addresses specified for enabled Prometheus service")
	}
	return nil
}
