package cli

import (
	"context"
	"fmt"

	"github.com/nocturnelabs/vaultdesk/internal/transfer"

	"github.com/urfave/cli/v3"
)

// transferCommand executes an asset transfer from a tracked vault, rendering
// each state of the execution as it happens.
//
// Usage example:
//
//	vaultdesk transfer --chain 8453 --vault 0xVAULT... --to 0xDEST... --amount 10.5
func transferCommand(svcs Services) *cli.Command {
	return &cli.Command{
		Name:        "transfer",
		Description: "Execute an asset transfer from a vault, via the multi-signature path or the sponsored user-operation path depending on the vault's configuration.",
		Usage:       "Requires the connected signer to be an owner of the vault.",
		Flags: []cli.Flag{
			chainFlag(),
			&cli.StringFlag{
				Name:     "vault",
				Usage:    "Vault address to transfer from",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Recipient address",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "amount",
				Usage:    "Decimal amount to transfer (e.g. 10.5)",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runTransfer(ctx, c, svcs)
		},
	}
}

func runTransfer(ctx context.Context, c *cli.Command, svcs Services) error {
	var (
		chainID = c.String("chain")
		vault   = c.String("vault")
	)

	// A fresh transport per transfer: sharing one across transfers could race
	// a chain switch against an in-flight call.
	transport, err := svcs.Gateway.AcquireTransport(ctx, chainID)
	if err != nil {
		return err
	}

	// The executor consumes a current snapshot of the target vault.
	result, err := svcs.Synchronizer.Synchronize(ctx, chainID, []string{vault}, transport)
	if err != nil {
		return err
	}
	if len(result.Snapshots) == 0 {
		if len(result.Failures) > 0 {
			return fmt.Errorf("fetching vault %s: %w", vault, result.Failures[0].Err)
		}
		return fmt.Errorf("vault %s yielded no snapshot", vault)
	}
	snapshot := result.Snapshots[0]

	// The renderer must not outlive the execution: precondition rejections
	// return before any transition is emitted, so the channel alone cannot
	// signal completion.
	renderCtx, cancelRender := context.WithCancel(ctx)
	defer cancelRender()

	done := make(chan struct{})
	go func() {
		defer close(done)
		renderTransitions(renderCtx, c, svcs.Transitions)
	}()

	intent := transfer.Intent{
		ChainID:      chainID,
		VaultAddress: vault,
		Destination:  c.String("to"),
		Amount:       c.String("amount"),
	}

	outcome, err := svcs.Transfers.Execute(ctx, intent, snapshot, transport)
	cancelRender()
	<-done
	if err != nil {
		return err
	}

	switch outcome.Status {
	case transfer.StatusAwaitingConfirmations:
		fmt.Fprintf(c.Writer, "broadcast recorded, awaiting co-signatures: %s\n", outcome.ExplorerURL)
	default:
		fmt.Fprintf(c.Writer, "confirmed: %s\n", outcome.ExplorerURL)
	}
	return nil
}

// renderTransitions prints transfer progress until a terminal state arrives
// or the context ends. By the time the context ends the execution has
// returned, so anything it emitted is already buffered: drain it before
// leaving so no state goes unprinted.
func renderTransitions(ctx context.Context, c *cli.Command, transitions <-chan transfer.Transition) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case t, ok := <-transitions:
					if !ok || renderTransition(c, t) {
						return
					}
				default:
					return
				}
			}
		case t, ok := <-transitions:
			if !ok || renderTransition(c, t) {
				return
			}
		}
	}
}

// renderTransition prints one transition and reports whether it is terminal.
func renderTransition(c *cli.Command, t transfer.Transition) bool {
	if t.Err != nil {
		fmt.Fprintf(c.ErrWriter, "-> %s: %v\n", t.Status, t.Err)
	} else {
		fmt.Fprintf(c.Writer, "-> %s\n", t.Status)
	}

	return t.Status.Terminal()
}
