package cli

import (
	"context"
	"fmt"

	"github.com/nocturnelabs/vaultdesk/internal/vaultbook"

	"github.com/urfave/cli/v3"
)

// vaultCommand groups the tracked-vault management subcommands.
func vaultCommand(vaults vaultbook.Service) *cli.Command {
	return &cli.Command{
		Name:        "vault",
		Description: "Manage the tracked vault set per chain.",
		Usage:       "vaultdesk vault [watch|unwatch|list] [flags]",
		Commands: []*cli.Command{
			watchVaultCommand(vaults),
			unwatchVaultCommand(vaults),
			listVaultsCommand(vaults),
		},
	}
}

// watchVaultCommand registers a vault address for tracking.
//
// Usage example:
//
//	vaultdesk vault watch --chain 8453 --address 0xABC123...
func watchVaultCommand(vaults vaultbook.Service) *cli.Command {
	return &cli.Command{
		Name:        "watch",
		Description: "Register a vault address for tracking on a chain. Adding an already-tracked address has no effect.",
		Usage:       "Registers a vault address. Must provide an address.",
		Flags: []cli.Flag{
			chainFlag(),
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Vault contract address to track",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return vaults.StartWatching(ctx, c.String("chain"), c.String("address"))
		},
	}
}

// unwatchVaultCommand removes a vault address from tracking.
//
// Usage example:
//
//	vaultdesk vault unwatch --chain 8453 --address 0xABC123...
func unwatchVaultCommand(vaults vaultbook.Service) *cli.Command {
	return &cli.Command{
		Name:        "unwatch",
		Description: "Remove a vault address from tracking on a chain. Removing an untracked address has no effect.",
		Usage:       "Stops tracking a vault address. Must provide an address.",
		Flags: []cli.Flag{
			chainFlag(),
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Vault contract address to stop tracking",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return vaults.StopWatching(ctx, c.String("chain"), c.String("address"))
		},
	}
}

// listVaultsCommand prints the tracked vault addresses for a chain.
func listVaultsCommand(vaults vaultbook.Service) *cli.Command {
	return &cli.Command{
		Name:        "list",
		Description: "List the tracked vault addresses for a chain, built-in defaults first on the primary chain.",
		Usage:       "Prints one tracked address per line.",
		Flags: []cli.Flag{
			chainFlag(),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			addresses, err := vaults.ListVaults(ctx, c.String("chain"))
			if err != nil {
				return err
			}

			if len(addresses) == 0 {
				fmt.Fprintln(c.Writer, "no tracked vaults")
				return nil
			}

			for _, addr := range addresses {
				fmt.Fprintln(c.Writer, addr)
			}
			return nil
		},
	}
}
