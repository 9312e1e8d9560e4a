package state

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mptledger/mptledger/pkg/core/statedump"
	"github.com/mptledger/mptledger/pkg/io"
	"github.com/mptledger/mptledger/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func exportDump(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("dump file is required", 1)
	}
	l, err := openLedger(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer l.close()

	root, err := l.root(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	f, err := os.Create(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("can't create dump file: %w", err), 1)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	err = statedump.Dump(l.trie, root, io.NewBinWriterFromIO(bw))
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to dump state: %w", err), 1)
	}
	fmt.Fprintln(ctx.App.Writer, root.StringBE())
	return nil
}

func importDump(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("dump file is required", 1)
	}
	l, err := openLedger(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer l.close()

	f, err := os.Open(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("can't open dump file: %w", err), 1)
	}
	defer f.Close()

	var count int
	root, err := statedump.Restore(l.store, io.NewBinReaderFromIO(bufio.NewReader(f)), l.trie.Secure(), func(util.Uint256) error {
		count++
		if count%100000 == 0 {
			l.log.Info("importing nodes", zap.Int("nodes", count))
		}
		return nil
	})
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to import state: %w", err), 1)
	}
	if err := l.commit(root); err != nil {
		return cli.NewExitError(err, 1)
	}
	l.log.Info("state imported", zap.Int("nodes", count), zap.Stringer("root", root))
	fmt.Fprintln(ctx.App.Writer, root.StringBE())
	return nil
}
