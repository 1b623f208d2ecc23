package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/mptindex/cli/trie"
	"github.com/nspcc-dev/mptindex/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "mptindex\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an mptindex instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "mptindex"
	ctl.Version = config.Version
	ctl.Usage = "Authenticated key-value index built on a Merkle-Patricia trie"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, trie.NewCommands()...)
	return ctl
}
