package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/logger"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/types"
	"github.com/nocturnelabs/vaultdesk/internal/vaultsync"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"

	"github.com/urfave/cli/v3"
)

// syncCommand fetches a fresh snapshot of every tracked vault on a chain and
// renders the results, listing per-vault failures separately.
//
// Usage example:
//
//	vaultdesk sync --chain 8453 --nonzero --out balances.csv
func syncCommand(svcs Services) *cli.Command {
	return &cli.Command{
		Name:        "sync",
		Description: "Synchronize tracked vault snapshots: ownership, threshold, modules, and asset balance.",
		Usage:       "Fetches all tracked vaults concurrently; vaults that fail to fetch are reported alongside the rest.",
		Flags: []cli.Flag{
			chainFlag(),
			&cli.BoolFlag{
				Name:  "nonzero",
				Usage: "Only show vaults holding a non-zero asset balance",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Optional CSV output path",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runSync(ctx, c, svcs)
		},
	}
}

func runSync(ctx context.Context, c *cli.Command, svcs Services) error {
	chainID := c.String("chain")

	cc, err := svcs.Chains.Context(chainID)
	if err != nil {
		return err
	}

	transport, err := svcs.Gateway.AcquireTransport(ctx, chainID)
	if err != nil {
		if errors.Is(err, wallet.ErrTransportNotReady) {
			return fmt.Errorf("wallet not ready yet, retry shortly: %w", err)
		}
		return err
	}

	tracked, err := svcs.Vaults.ListVaults(ctx, chainID)
	if err != nil {
		return err
	}

	// An empty tracked set is a valid state, reported distinctly from a pass
	// where every fetch failed.
	if len(tracked) == 0 {
		fmt.Fprintln(c.Writer, "no tracked vaults")
		return nil
	}

	result, err := svcs.Synchronizer.Synchronize(ctx, chainID, tracked, transport)
	if err != nil {
		return err
	}

	// Identity resolution is best-effort: a failed call keeps previously
	// resolved identities available.
	if err := svcs.Identities.ResolveOwners(ctx, result.MergedOwners); err != nil {
		logger.Warn(ctx, "identity resolution failed", "error", err)
	}

	snapshots := result.Snapshots
	if c.Bool("nonzero") {
		snapshots = filterNonZero(snapshots)
	}

	renderSnapshots(c, cc, svcs, snapshots)
	renderFailures(c, result.Failures)

	if out := c.String("out"); out != "" {
		if err := exportCSV(out, cc, snapshots); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
	}

	if len(result.Snapshots) == 0 && len(result.Failures) > 0 {
		return fmt.Errorf("synchronization failed for all %d vaults", len(result.Failures))
	}
	return nil
}

func filterNonZero(snapshots []vaultsync.Snapshot) []vaultsync.Snapshot {
	out := make([]vaultsync.Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s.Balance != "0" {
			out = append(out, s)
		}
	}
	return out
}

func renderSnapshots(c *cli.Command, cc chains.Context, svcs Services, snapshots []vaultsync.Snapshot) {
	if len(snapshots) == 0 {
		return
	}

	w := tabwriter.NewWriter(c.Writer, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "VAULT\tVERSION\tTHRESHOLD\tOWNERS\tBALANCE\tSPONSORED")
	for _, s := range snapshots {
		balance, _ := formatBalance(s.Balance, cc.AssetDecimals)

		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s %s\t%t\n",
			s.Address,
			s.Version,
			s.Threshold,
			len(s.Owners),
			ownerSummary(svcs, s.Owners),
			balance,
			cc.AssetSymbol,
			s.AAEnabled,
		)
	}
}

func renderFailures(c *cli.Command, failures []vaultsync.FetchFailure) {
	for _, f := range failures {
		fmt.Fprintf(c.ErrWriter, "failed to fetch %s: %v\n", f.Address, f.Err)
	}
}

// ownerSummary renders the first owner with its resolved identity when known,
// plus a count of the rest.
func ownerSummary(svcs Services, owners []string) string {
	if len(owners) == 0 {
		return "-"
	}

	first := owners[0]
	if name, ok := svcs.Identities.IdentityFor(first); ok {
		first = name
	}

	if len(owners) == 1 {
		return first
	}
	return fmt.Sprintf("%s +%d", first, len(owners)-1)
}

func formatBalance(baseUnits string, decimals uint8) (string, error) {
	v, err := types.ParseDecimal(baseUnits, 0)
	if err != nil {
		return baseUnits, err
	}
	return types.FormatDecimal(v, decimals), nil
}

// exportCSV writes snapshots in the same column layout as the balance report:
// address, raw base units, human-readable amount, symbol.
func exportCSV(path string, cc chains.Context, snapshots []vaultsync.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"address", "balance_raw", "balance", "symbol"}); err != nil {
		return err
	}

	for _, s := range snapshots {
		balance, _ := formatBalance(s.Balance, cc.AssetDecimals)
		if err := w.Write([]string{s.Address, s.Balance, balance, cc.AssetSymbol}); err != nil {
			return err
		}
	}

	return nil
}
