package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/mptledger/mptledger/cli/state"
	"github.com/mptledger/mptledger/cli/wallet"
	"github.com/mptledger/mptledger/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "mptledger\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an mptledger instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "mptledger"
	ctl.Version = config.Version
	ctl.Usage = "Merkle Patricia Trie state storage and signed transactions"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, state.NewCommands()...)
	ctl.Commands = append(ctl.Commands, wallet.NewCommands()...)
	return ctl
}
