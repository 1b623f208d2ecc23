package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nspcc-dev/mptindex/pkg/core/storage"
	"github.com/nspcc-dev/mptindex/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config file.
	DefaultConfigPath = "./config/mptindex.yml"
	// DefaultDataPath is the default LevelDB data directory.
	DefaultDataPath = "./data/mptindex"
	// DefaultNodeCacheSize is the default number of trie nodes cached.
	DefaultNodeCacheSize = 10000
)

// Version is the version of the application, set at build time.
var Version string

// Config top level struct representing the config for the application.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			DBConfiguration: dbconfig.DBConfiguration{
				Type: storage.LevelDB,
				LevelDBOptions: dbconfig.LevelDBOptions{
					DataDirectoryPath: DefaultDataPath,
				},
			},
			Trie: Trie{
				Hasher:        "sha256",
				HashedPaths:   true,
				NodeCacheSize: DefaultNodeCacheSize,
			},
		},
	}
}

// LoadFile loads config from the provided path. Relative paths specified in
// the file are prefixed with relativePath if it's given.
func LoadFile(configPath string, relativePath ...string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if len(relativePath) == 1 && relativePath[0] != "" {
		updateRelativePaths(relativePath[0], &config)
	}

	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// updateRelativePaths updates relative paths in the config structure based on
// the provided relative path.
func updateRelativePaths(relativePath string, config *Config) {
	updatePath := func(path *string) {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(relativePath, *path)
		}
	}

	updatePath(&config.ApplicationConfiguration.LogPath)
	updatePath(&config.ApplicationConfiguration.DBConfiguration.LevelDBOptions.DataDirectoryPath)
	updatePath(&config.ApplicationConfiguration.DBConfiguration.BoltDBOptions.FilePath)
}
