// Package cli exposes the vaultdesk command-line interface: tracked-vault
// management, snapshot synchronization, and transfer execution.
package cli

import (
	"context"
	"os"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/identity"
	"github.com/nocturnelabs/vaultdesk/internal/transfer"
	"github.com/nocturnelabs/vaultdesk/internal/vaultbook"
	"github.com/nocturnelabs/vaultdesk/internal/vaultsync"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"

	"github.com/urfave/cli/v3"
)

// Services bundles everything the commands operate on.
type Services struct {
	Chains       chains.Registry
	Vaults       vaultbook.Service
	Gateway      wallet.Gateway
	Synchronizer vaultsync.Service
	Identities   identity.Service
	Transfers    transfer.Service

	// Transitions receives every transfer state transition, in order. The
	// transfer command renders them as progress output.
	Transitions <-chan transfer.Transition
}

// Run initializes and executes the vaultdesk CLI application.
//
// It registers all available commands:
//
//   - `vault watch` / `vault unwatch` / `vault list`: tracked-vault management.
//   - `sync`: snapshot synchronization with optional CSV export.
//   - `transfer`: execute an asset transfer from a vault.
func Run(ctx context.Context, svcs Services) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "vaultdesk",
		Description:           "Command-line interface for tracking vault accounts and executing asset transfers.",
		Usage:                 "vaultdesk [command] [flags]",
		Commands: []*cli.Command{
			vaultCommand(svcs.Vaults),
			syncCommand(svcs),
			transferCommand(svcs),
		},
	}

	return app.Run(ctx, os.Args)
}

// chainFlag is the shared --chain selector, defaulting to the primary chain.
func chainFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "chain",
		Usage: "Chain identifier (e.g. 8453 for Base, 84532 for Base Sepolia)",
		Value: chains.BaseMainnet,
	}
}
