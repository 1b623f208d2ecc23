package trie

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nspcc-dev/mptindex/cli/options"
	"github.com/nspcc-dev/mptindex/pkg/config"
	"github.com/nspcc-dev/mptindex/pkg/core/mpt"
	"github.com/nspcc-dev/mptindex/pkg/core/storage"
	"github.com/nspcc-dev/mptindex/pkg/crypto/hash"
	"github.com/nspcc-dev/mptindex/pkg/services/metrics"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// KeyValue is a hex-encoded key-value pair used in import and export files.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var (
	keyFlag = cli.StringFlag{
		Name:  "key, k",
		Usage: "hex-encoded key",
	}
	valueFlag = cli.StringFlag{
		Name:  "value, v",
		Usage: "hex-encoded value",
	}
	inFlag = cli.StringFlag{
		Name:  "in, i",
		Usage: "input file (JSON array of {\"key\": <hex>, \"value\": <hex>} objects)",
	}
	outFlag = cli.StringFlag{
		Name:  "out, o",
		Usage: "output file (stdout if not specified)",
	}
)

// NewCommands returns 'trie' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "trie",
		Usage: "Operate on the persisted trie",
		Subcommands: []cli.Command{
			{
				Name:      "insert",
				Usage:     "Insert a key-value pair and persist the new root",
				UsageText: "mptindex trie insert --key <hex> [--value <hex>] [--config-file file]",
				Action:    insert,
				Flags:     append([]cli.Flag{keyFlag, valueFlag}, options.Config...),
			},
			{
				Name:      "get",
				Usage:     "Print the value stored by the key",
				UsageText: "mptindex trie get --key <hex> [--config-file file]",
				Action:    get,
				Flags:     append([]cli.Flag{keyFlag}, options.Config...),
			},
			{
				Name:      "root",
				Usage:     "Print the root digest, the number of entries and stored nodes",
				UsageText: "mptindex trie root [--config-file file]",
				Action:    root,
				Flags:     options.Config,
			},
			{
				Name:      "dump",
				Usage:     "Print the trie structure",
				UsageText: "mptindex trie dump [--config-file file]",
				Action:    dump,
				Flags:     options.Config,
			},
			{
				Name:      "import",
				Usage:     "Insert all pairs from the file and persist the new root",
				UsageText: "mptindex trie import --in <file> [--config-file file]",
				Action:    importPairs,
				Flags:     append([]cli.Flag{inFlag}, options.Config...),
			},
			{
				Name:      "export",
				Usage:     "Write all pairs into the file in routing path order",
				UsageText: "mptindex trie export [--out <file>] [--config-file file]",
				Action:    exportPairs,
				Flags:     append([]cli.Flag{outFlag}, options.Config...),
			},
		},
	}}
}

// dbVersion is the storage schema version written by this application.
const dbVersion = "mptindex-1"

// checkVersion ensures the storage was created by a compatible version,
// fresh storage is marked with dbVersion.
func checkVersion(s storage.Store) error {
	v, err := storage.Version(s)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return storage.PutVersion(s, dbVersion)
	}
	if err != nil {
		return fmt.Errorf("failed to get storage version: %w", err)
	}
	if v != dbVersion {
		return fmt.Errorf("storage version mismatch: %q, expected %q", v, dbVersion)
	}
	return nil
}

// env holds everything needed to work with the persisted trie.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	store storage.Store
	ts    *mpt.TrieStore
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.log.Error("failed to close the DB", zap.Error(err))
	}
	_ = e.log.Sync()
}

func newEnv(ctx *cli.Context) (*env, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	trieCfg, err := trieConfig(cfg.ApplicationConfiguration.Trie)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("could not initialize storage: %w", err), 1)
	}
	if err := checkVersion(store); err != nil {
		_ = store.Close()
		return nil, cli.NewExitError(err, 1)
	}
	return &env{
		cfg:   cfg,
		log:   log,
		store: store,
		ts:    mpt.NewTrieStore(store, trieCfg, cfg.ApplicationConfiguration.Trie.NodeCacheSize, log),
	}, nil
}

func trieConfig(cfg config.Trie) (mpt.Config, error) {
	h, err := hash.New(cfg.Hasher)
	if err != nil {
		return mpt.Config{}, err
	}
	return mpt.Config{Hasher: h, HashedPaths: cfg.HashedPaths}, nil
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func parseKey(ctx *cli.Context) ([]byte, error) {
	s := ctx.String("key")
	if s == "" {
		return nil, errors.New("no key specified")
	}
	key, err := decodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	return key, nil
}

func insert(ctx *cli.Context) error {
	key, err := parseKey(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	value, err := decodeHex(ctx.String("value"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid value: %w", err), 1)
	}
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	t, err := e.ts.Load()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	t, err = t.Insert(key, value)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := e.ts.Flush(t); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, "0x"+t.Hash().StringBE())
	return nil
}

func get(ctx *cli.Context) error {
	key, err := parseKey(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	t, err := e.ts.Load()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	value, err := t.Get(key)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(value))
	return nil
}

func root(ctx *cli.Context) error {
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	t, err := e.ts.Load()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Root: 0x%s\nSize: %d\nStored nodes: %d\n",
		t.Hash().StringBE(), t.Size(), e.ts.StoredNodes())
	return nil
}

func dump(ctx *cli.Context) error {
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	t, err := e.ts.Load()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprint(ctx.App.Writer, t.String())
	return nil
}

func importPairs(ctx *cli.Context) error {
	in := ctx.String("in")
	if in == "" {
		return cli.NewExitError(errors.New("no input file specified"), 1)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var pairs []KeyValue
	if err := json.Unmarshal(data, &pairs); err != nil {
		return cli.NewExitError(fmt.Errorf("invalid input file: %w", err), 1)
	}

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	prometheus := metrics.NewPrometheusService(e.cfg.ApplicationConfiguration.Prometheus, e.log)
	if err := prometheus.Start(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to start Prometheus service: %w", err), 1)
	}
	defer prometheus.ShutDown()

	t, err := e.ts.Load()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for i, p := range pairs {
		key, err := decodeHex(p.Key)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("pair #%d: invalid key: %w", i, err), 1)
		}
		value, err := decodeHex(p.Value)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("pair #%d: invalid value: %w", i, err), 1)
		}
		t, err = t.Insert(key, value)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("pair #%d: %w", i, err), 1)
		}
	}
	if err := e.ts.Flush(t); err != nil {
		return cli.NewExitError(err, 1)
	}
	e.log.Info("pairs imported", zap.Int("count", len(pairs)), zap.Int("size", t.Size()))
	fmt.Fprintln(ctx.App.Writer, "0x"+t.Hash().StringBE())
	return nil
}

func exportPairs(ctx *cli.Context) error {
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	t, err := e.ts.Load()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	pairs := make([]KeyValue, 0, t.Size())
	t.Walk(func(k, v []byte) bool {
		pairs = append(pairs, KeyValue{Key: hex.EncodeToString(k), Value: hex.EncodeToString(v)})
		return true
	})
	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if out := ctx.String("out"); out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	}
	fmt.Fprintln(ctx.App.Writer, string(data))
	return nil
}
