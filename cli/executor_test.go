package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nspcc-dev/mptindex/cli/app"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
	// ConfigFile is the path to the test configuration.
	ConfigFile string
}

const testConfigTemplate = `ApplicationConfiguration:
  LogLevel: warn
  DBConfiguration:
    Type: %DB%
    LevelDBOptions:
      DataDirectoryPath: ./leveldb
    BoltDBOptions:
      FilePath: ./trie.bolt
  Trie:
    Hasher: sha256
    HashedPaths: %HASHED%
`

func newExecutor(t *testing.T) *executor {
	return newExecutorWithConfig(t, "boltdb", true)
}

func newExecutorWithConfig(t *testing.T, db string, hashedPaths bool) *executor {
	e := &executor{
		CLI: app.New(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err

	dir := t.TempDir()
	hashed := "false"
	if hashedPaths {
		hashed = "true"
	}
	cfg := strings.NewReplacer("%DB%", db, "%HASHED%", hashed).Replace(testConfigTemplate)
	e.ConfigFile = filepath.Join(dir, "mptindex.yml")
	require.NoError(t, os.WriteFile(e.ConfigFile, []byte(cfg), 0o644))
	return e
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	e.checkLine(t, line, expected)
}

func (e *executor) checkLine(t *testing.T, line, expected string) {
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...))
	checkExit(t, ch, 0)
}

// RunWithConfig runs trie subcommand with the executor config and
// relative path set to the config directory.
func (e *executor) RunWithConfig(t *testing.T, args ...string) {
	e.Run(t, e.withConfig(args)...)
}

// RunWithConfigError is the same as RunWithConfig but expects an error.
func (e *executor) RunWithConfigError(t *testing.T, args ...string) {
	e.RunWithError(t, e.withConfig(args)...)
}

func (e *executor) withConfig(args []string) []string {
	return append(args, "--config-file", e.ConfigFile, "--relative-path", filepath.Dir(e.ConfigFile))
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	return e.CLI.Run(args)
}
