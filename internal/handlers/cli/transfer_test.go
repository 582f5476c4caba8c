package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/nocturnelabs/vaultdesk/internal/pkg/logger"
	"github.com/nocturnelabs/vaultdesk/internal/transfer"
	"github.com/nocturnelabs/vaultdesk/internal/vaultsync"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize logger for tests to prevent nil pointer dereference
	_ = logger.Init(logger.WithLevel("error")) // Use error level to reduce test output
}

const (
	testVault  = "0xAa00000000000000000000000000000000000001"
	testDest   = "0xBb00000000000000000000000000000000000002"
	testSigner = "0xCc00000000000000000000000000000000000003"
)

type transportStub struct{}

func (transportStub) ChainID() string       { return "8453" }
func (transportStub) SignerAddress() string { return testSigner }
func (transportStub) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return nil, nil
}

type gatewayStub struct {
	transport wallet.Transport
	err       error
}

func (g gatewayStub) AcquireTransport(ctx context.Context, targetChainID string) (wallet.Transport, error) {
	return g.transport, g.err
}

type synchronizerStub struct {
	result vaultsync.Result
	err    error
}

func (s synchronizerStub) Synchronize(ctx context.Context, chainID string, addresses []string, transport wallet.Transport) (vaultsync.Result, error) {
	return s.result, s.err
}

type transfersStub struct {
	execute func(ctx context.Context, intent transfer.Intent, snapshot vaultsync.Snapshot, transport wallet.Transport) (transfer.Result, error)
}

func (s transfersStub) Execute(ctx context.Context, intent transfer.Intent, snapshot vaultsync.Snapshot, transport wallet.Transport) (transfer.Result, error) {
	return s.execute(ctx, intent, snapshot, transport)
}

func ownerSnapshot() vaultsync.Snapshot {
	return vaultsync.Snapshot{
		ChainID:   "8453",
		Address:   testVault,
		Threshold: 1,
		Owners:    []string{testSigner},
		Balance:   "10500000",
	}
}

// runTransferCommand executes the transfer command against stubbed services
// and returns the captured output streams.
func runTransferCommand(t *testing.T, svcs Services) (error, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := transferCommand(svcs)
	cmd.Writer = &out
	cmd.ErrWriter = &errOut

	err := cmd.Run(t.Context(), []string{
		"transfer",
		"--vault", testVault,
		"--to", testDest,
		"--amount", "10.5",
	})
	return err, &out, &errOut
}

func TestTransferCommand(t *testing.T) {
	t.Run("renders every transition of a confirmed transfer", func(t *testing.T) {
		transitions := make(chan transfer.Transition, 8)

		svcs := Services{
			Gateway:      gatewayStub{transport: transportStub{}},
			Synchronizer: synchronizerStub{result: vaultsync.Result{Snapshots: []vaultsync.Snapshot{ownerSnapshot()}}},
			Transfers: transfersStub{execute: func(ctx context.Context, intent transfer.Intent, snapshot vaultsync.Snapshot, transport wallet.Transport) (transfer.Result, error) {
				for _, status := range []transfer.Status{
					transfer.StatusBuilding,
					transfer.StatusAwaitingSignature,
					transfer.StatusBroadcasting,
					transfer.StatusConfirmed,
				} {
					transitions <- transfer.Transition{Status: status, TxHash: "0xtxhash"}
				}
				return transfer.Result{
					Status:      transfer.StatusConfirmed,
					TxHash:      "0xtxhash",
					ExplorerURL: "https://explorer.example.org/tx/0xtxhash",
					Finalized:   true,
				}, nil
			}},
			Transitions: transitions,
		}

		err, out, _ := runTransferCommand(t, svcs)
		require.NoError(t, err)

		assert.Contains(t, out.String(), "-> building")
		assert.Contains(t, out.String(), "-> awaiting_signature")
		assert.Contains(t, out.String(), "-> broadcasting")
		assert.Contains(t, out.String(), "-> confirmed")
		assert.Contains(t, out.String(), "confirmed: https://explorer.example.org/tx/0xtxhash")
	})

	t.Run("precondition rejection returns the error without emitting", func(t *testing.T) {
		// A non-owner is rejected before any transition reaches the channel;
		// the command must still return instead of waiting on one.
		transitions := make(chan transfer.Transition, 8)

		svcs := Services{
			Gateway:      gatewayStub{transport: transportStub{}},
			Synchronizer: synchronizerStub{result: vaultsync.Result{Snapshots: []vaultsync.Snapshot{ownerSnapshot()}}},
			Transfers: transfersStub{execute: func(ctx context.Context, intent transfer.Intent, snapshot vaultsync.Snapshot, transport wallet.Transport) (transfer.Result, error) {
				return transfer.Result{Status: transfer.StatusFailed}, transfer.ErrSignerNotOwner
			}},
			Transitions: transitions,
		}

		err, out, _ := runTransferCommand(t, svcs)
		require.Error(t, err)
		assert.ErrorIs(t, err, transfer.ErrSignerNotOwner)
		assert.Empty(t, out.String())
	})

	t.Run("advisory outcome for a threshold above one", func(t *testing.T) {
		transitions := make(chan transfer.Transition, 8)

		svcs := Services{
			Gateway:      gatewayStub{transport: transportStub{}},
			Synchronizer: synchronizerStub{result: vaultsync.Result{Snapshots: []vaultsync.Snapshot{ownerSnapshot()}}},
			Transfers: transfersStub{execute: func(ctx context.Context, intent transfer.Intent, snapshot vaultsync.Snapshot, transport wallet.Transport) (transfer.Result, error) {
				transitions <- transfer.Transition{Status: transfer.StatusAwaitingConfirmations, TxHash: "0xtxhash"}
				return transfer.Result{
					Status:      transfer.StatusAwaitingConfirmations,
					TxHash:      "0xtxhash",
					ExplorerURL: "https://explorer.example.org/tx/0xtxhash",
				}, nil
			}},
			Transitions: transitions,
		}

		err, out, _ := runTransferCommand(t, svcs)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "awaiting co-signatures")
	})

	t.Run("transport acquisition failure surfaces", func(t *testing.T) {
		svcs := Services{
			Gateway: gatewayStub{err: wallet.ErrNoSigner},
		}

		err, _, _ := runTransferCommand(t, svcs)
		require.Error(t, err)
		assert.ErrorIs(t, err, wallet.ErrNoSigner)
	})
}
