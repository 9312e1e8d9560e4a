/*
Package state implements trie and dump commands working with the ledger
database.
*/
package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mptledger/mptledger/cli/options"
	"github.com/urfave/cli"
)

var errKeyNotFound = errors.New("key not found")

// kvPair is a key-value pair printed by 'trie list --json'.
type kvPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewCommands returns 'trie' and 'dump' commands.
func NewCommands() []cli.Command {
	stringFlag := cli.BoolFlag{
		Name:  "string, s",
		Usage: "treat keys and values as UTF-8 strings instead of hex",
	}
	readFlags := append([]cli.Flag{stringFlag, options.Root}, options.Ledger...)
	writeFlags := append([]cli.Flag{stringFlag}, options.Ledger...)
	return []cli.Command{
		{
			Name:  "trie",
			Usage: "Work with the state trie",
			Subcommands: []cli.Command{
				{
					Name:      "put",
					Usage:     "Put key-value pair into the trie",
					UsageText: "mptledger trie put [--string] [--config-file file] <key> <value>",
					Action:    putKV,
					Flags:     writeFlags,
				},
				{
					Name:      "get",
					Usage:     "Get value for the key",
					UsageText: "mptledger trie get [--string] [--root hash] [--config-file file] <key>",
					Action:    getKV,
					Flags:     readFlags,
				},
				{
					Name:      "delete",
					Usage:     "Delete key from the trie",
					UsageText: "mptledger trie delete [--string] [--config-file file] <key>",
					Action:    deleteKV,
					Flags:     writeFlags,
				},
				{
					Name:      "root",
					Usage:     "Print the current root hash",
					UsageText: "mptledger trie root [--config-file file]",
					Action:    printRoot,
					Flags:     options.Ledger,
				},
				{
					Name:  "list",
					Usage: "List all key-value pairs",
					UsageText: "mptledger trie list [--string] [--json] [--root hash] [--config-file file]\n\n" +
						"   Keys are SHA-256 digests of the original keys for secure tries.",
					Action: listKV,
					Flags: append([]cli.Flag{cli.BoolFlag{
						Name:  "json",
						Usage: "print pairs as JSON objects, one per line",
					}}, readFlags...),
				},
				{
					Name:  "proof",
					Usage: "Print inclusion proof for the key",
					UsageText: "mptledger trie proof [--string] [--root hash] [--config-file file] <key>\n\n" +
						"   Proof nodes are printed in hex one per line starting from the root.",
					Action: printProof,
					Flags:  readFlags,
				},
			},
		},
		{
			Name:  "dump",
			Usage: "Export or import trie state",
			Subcommands: []cli.Command{
				{
					Name:      "export",
					Usage:     "Export all trie nodes reachable from the root into a file",
					UsageText: "mptledger dump export [--root hash] [--config-file file] <file>",
					Action:    exportDump,
					Flags:     append([]cli.Flag{options.Root}, options.Ledger...),
				},
				{
					Name:      "import",
					Usage:     "Import trie nodes from a file and make its root current",
					UsageText: "mptledger dump import [--config-file file] <file>",
					Action:    importDump,
					Flags:     options.Ledger,
				},
			},
		},
	}
}

// formatData is the inverse of options.ParseData.
func formatData(b []byte, asString bool) string {
	if asString {
		return string(b)
	}
	return hex.EncodeToString(b)
}

func parseArgs(ctx *cli.Context, names ...string) ([][]byte, error) {
	if ctx.NArg() != len(names) {
		return nil, fmt.Errorf("expected %d arguments (%v), got %d", len(names), names, ctx.NArg())
	}
	res := make([][]byte, len(names))
	for i := range names {
		b, err := options.ParseData(ctx.Args().Get(i), ctx.Bool("string"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", names[i], err)
		}
		res[i] = b
	}
	return res, nil
}

func putKV(ctx *cli.Context) error {
	args, err := parseArgs(ctx, "key", "value")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	l, err := openLedger(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer l.close()

	root, err := l.head()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	root, err = l.trie.Put(root, args[0], args[1])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to put: %w", err), 1)
	}
	if err := l.commit(root); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, root.StringBE())
	return nil
}

func getKV(ctx *cli.Context) error {
	args, err := parseArgs(ctx, "key")
	if err != nil {
		return cli.NewExitError(err, 1)
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
	val, ok, err := l.trie.Get(root, args[0])
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if !ok {
		return cli.NewExitError(errKeyNotFound, 1)
	}
	fmt.Fprintln(ctx.App.Writer, formatData(val, ctx.Bool("string")))
	return nil
}

func deleteKV(ctx *cli.Context) error {
	args, err := parseArgs(ctx, "key")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	l, err := openLedger(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer l.close()

	root, err := l.head()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	root, err = l.trie.Delete(root, args[0])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to delete: %w", err), 1)
	}
	if err := l.commit(root); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, root.StringBE())
	return nil
}

func printRoot(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError("unexpected arguments", 1)
	}
	l, err := openLedger(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer l.close()

	root, err := l.head()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, root.StringBE())
	return nil
}

func listKV(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError("unexpected arguments", 1)
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
	var (
		asString  = ctx.Bool("string")
		keyString = asString && !l.trie.Secure()
		encoder   *json.Encoder
		encErr    error
	)
	if ctx.Bool("json") {
		encoder = json.NewEncoder(ctx.App.Writer)
	}
	err = l.trie.Traverse(root, func(k, v []byte) bool {
		pair := kvPair{Key: formatData(k, keyString), Value: formatData(v, asString)}
		if encoder != nil {
			encErr = encoder.Encode(pair)
			return encErr == nil
		}
		fmt.Fprintf(ctx.App.Writer, "%s: %s\n", pair.Key, pair.Value)
		return true
	})
	if err == nil {
		err = encErr
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func printProof(ctx *cli.Context) error {
	args, err := parseArgs(ctx, "key")
	if err != nil {
		return cli.NewExitError(err, 1)
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
	proof, err := l.trie.GetProof(root, args[0])
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, p := range proof {
		fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(p))
	}
	return nil
}
