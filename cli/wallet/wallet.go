/*
Package wallet implements key management and transaction signing commands.
*/
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mptledger/mptledger/pkg/crypto/keys"
	"github.com/mptledger/mptledger/pkg/encoding/address"
	"github.com/urfave/cli"
)

var errNoKey = errors.New("private key is mandatory and should be passed using (--key, -k) flag")

var keyFlag = cli.StringFlag{
	Name:  "key, k",
	Usage: "hex-encoded secp256k1 private key",
}

// NewCommands returns 'keys' and 'tx' commands.
func NewCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "keys",
			Usage: "Generate keys and derive addresses",
			Subcommands: []cli.Command{
				{
					Name:      "new",
					Usage:     "Generate a new private key",
					UsageText: "mptledger keys new",
					Action:    newKey,
				},
				{
					Name:      "address",
					Usage:     "Print the address of a public or private key",
					UsageText: "mptledger keys address <hex public key> | mptledger keys address --key <hex private key>",
					Action:    printAddress,
					Flags:     []cli.Flag{keyFlag},
				},
			},
		},
		newTxCommand(),
	}
}

func newKey(ctx *cli.Context) error {
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to generate key: %w", err), 1)
	}
	defer priv.Destroy()
	printKey(ctx, priv)
	return nil
}

func printKey(ctx *cli.Context, priv *keys.PrivateKey) {
	fmt.Fprintf(ctx.App.Writer, "Private key: %s\n", priv.String())
	fmt.Fprintf(ctx.App.Writer, "Public key: %s\n", priv.PublicKey().String())
	fmt.Fprintf(ctx.App.Writer, "Address: %s\n", address.EncodeUint160(priv.Address()))
}

func printAddress(ctx *cli.Context) error {
	if k := ctx.String("key"); len(k) != 0 {
		if ctx.NArg() != 0 {
			return cli.NewExitError("public key conflicts with --key", 1)
		}
		priv, err := getPrivateKey(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer priv.Destroy()
		fmt.Fprintln(ctx.App.Writer, address.EncodeUint160(priv.Address()))
		return nil
	}
	if ctx.NArg() != 1 {
		return cli.NewExitError("public key is required", 1)
	}
	pub, err := keys.NewPublicKeyFromString(strings.TrimPrefix(ctx.Args().First(), "0x"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid public key: %w", err), 1)
	}
	fmt.Fprintln(ctx.App.Writer, address.EncodeUint160(pub.Address()))
	return nil
}

func getPrivateKey(ctx *cli.Context) (*keys.PrivateKey, error) {
	k := ctx.String("key")
	if len(k) == 0 {
		return nil, errNoKey
	}
	priv, err := keys.NewPrivateKeyFromHex(strings.TrimPrefix(k, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return priv, nil
}
