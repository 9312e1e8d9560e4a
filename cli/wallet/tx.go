package wallet

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mptledger/mptledger/pkg/core/transaction"
	"github.com/mptledger/mptledger/pkg/encoding/address"
	"github.com/mptledger/mptledger/pkg/encoding/bencodex"
	"github.com/urfave/cli"
)

func newTxCommand() cli.Command {
	return cli.Command{
		Name:  "tx",
		Usage: "Sign, decode and verify transactions",
		Subcommands: []cli.Command{
			{
				Name:  "sign",
				Usage: "Create and sign a transaction",
				UsageText: "mptledger tx sign --key <hex> [--recipient <address>] [--timestamp <time>] [--action <type[:name=value,...]>]...\n\n" +
					"   Recipient defaults to the signer, timestamp defaults to the current time and uses\n" +
					"   " + transaction.TimestampFormat + " format. Action values are text.\n" +
					"   The encoded transaction is printed in hex.",
				Action: signTx,
				Flags: []cli.Flag{
					keyFlag,
					cli.StringFlag{
						Name:  "recipient",
						Usage: "recipient address",
					},
					cli.StringFlag{
						Name:  "timestamp",
						Usage: "transaction timestamp",
					},
					cli.StringSliceFlag{
						Name:  "action, a",
						Usage: "action to include, can be repeated",
					},
				},
			},
			{
				Name:      "decode",
				Usage:     "Print hex-encoded transaction as JSON",
				UsageText: "mptledger tx decode <hex>",
				Action:    decodeTx,
			},
			{
				Name:      "verify",
				Usage:     "Check transaction signature and signer",
				UsageText: "mptledger tx verify <hex>",
				Action:    verifyTx,
			},
		},
	}
}

// parseAction parses "type_id[:name=value,...]" action description.
func parseAction(s string) (transaction.Action, error) {
	typeID, params, hasParams := strings.Cut(s, ":")
	if len(typeID) == 0 {
		return nil, fmt.Errorf("action %q: empty type", s)
	}
	values := bencodex.Dictionary{}
	if hasParams && len(params) != 0 {
		for _, p := range strings.Split(params, ",") {
			name, val, ok := strings.Cut(p, "=")
			if !ok || len(name) == 0 {
				return nil, fmt.Errorf("action %q: bad parameter %q", s, p)
			}
			k := bencodex.TextKey(name)
			if _, dup := values[k]; dup {
				return nil, fmt.Errorf("action %q: duplicate parameter %q", s, name)
			}
			values[k] = bencodex.Text(val)
		}
	}
	return transaction.NewGenericAction(typeID, values)
}

func signTx(ctx *cli.Context) error {
	priv, err := getPrivateKey(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer priv.Destroy()

	recipient := priv.Address()
	if r := ctx.String("recipient"); len(r) != 0 {
		recipient, err = address.DecodeUint160(r)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid recipient: %w", err), 1)
		}
	}
	ts := time.Now()
	if s := ctx.String("timestamp"); len(s) != 0 {
		ts, err = transaction.ParseTimestamp(s)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid timestamp: %w", err), 1)
		}
	}
	actions := []transaction.Action{}
	for _, s := range ctx.StringSlice("action") {
		a, err := parseAction(s)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		actions = append(actions, a)
	}
	tx, err := transaction.Sign(priv, recipient, actions, ts)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to sign: %w", err), 1)
	}
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(tx.Bytes(true)))
	return nil
}

func readTx(ctx *cli.Context) (*transaction.Transaction, error) {
	if ctx.NArg() != 1 {
		return nil, fmt.Errorf("hex-encoded transaction is required")
	}
	data, err := hex.DecodeString(strings.TrimPrefix(ctx.Args().First(), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return transaction.Decode(data, transaction.NewGenericAction)
}

func decodeTx(ctx *cli.Context) error {
	tx, err := readTx(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	b, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, string(b))
	return nil
}

func verifyTx(ctx *cli.Context) error {
	tx, err := readTx(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := tx.Validate(); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "OK %s\n", tx.ID().StringBE())
	return nil
}

