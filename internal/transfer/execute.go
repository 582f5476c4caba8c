package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/logger"
	"github.com/nocturnelabs/vaultdesk/internal/vaultsync"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

var (
	// ErrSignerNotOwner indicates the transport's signer is not among the
	// vault's owners. The transfer is rejected before any network call.
	ErrSignerNotOwner = errors.New("signer is not an owner of the vault")

	// ErrSignatureRejected indicates the signer declined to sign.
	ErrSignatureRejected = errors.New("signature rejected")

	// ErrSubmissionFailed indicates the broadcast or bundler submission was
	// rejected.
	ErrSubmissionFailed = errors.New("submission failed")
)

func (s *service) Execute(ctx context.Context, intent Intent, snapshot vaultsync.Snapshot, transport wallet.Transport) (Result, error) {
	cc, err := s.chains.Context(intent.ChainID)
	if err != nil {
		return Result{}, err
	}

	amount, err := intent.validate(cc.AssetDecimals)
	if err != nil {
		return Result{}, err
	}

	// Read-only access ends here: a signer outside the owner set must be
	// rejected before the first transition and the first network call.
	if !snapshot.SignerIsOwner {
		return Result{}, fmt.Errorf("%w: %s", ErrSignerNotOwner, transport.SignerAddress())
	}

	s.emit(ctx, Transition{Status: StatusBuilding})

	calldata, err := s.encoder.EncodeTransfer(intent.Destination, amount)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("encoding transfer: %w", err))
	}

	// One batched call against the asset contract, zero native value.
	calls := []Call{{
		To:    cc.AssetAddress,
		Value: big.NewInt(0),
		Data:  calldata,
	}}

	if snapshot.AAEnabled {
		return s.executeGasless(ctx, cc, intent, calls, transport)
	}

	return s.executeStandard(ctx, cc, intent, snapshot, calls, transport)
}

// fail emits the failing terminal transition and returns the error.
func (s *service) fail(ctx context.Context, err error) (Result, error) {
	s.emit(ctx, Transition{Status: StatusFailed, Err: err})
	return Result{Status: StatusFailed}, err
}

// executeStandard drives the classic multi-signature path: build the vault
// transaction from the batched call, collect the signer's signature, and
// broadcast.
func (s *service) executeStandard(ctx context.Context, cc chains.Context, intent Intent, snapshot vaultsync.Snapshot, calls []Call, transport wallet.Transport) (Result, error) {
	executor := s.vaults.Executor(transport, intent.VaultAddress)

	s.emit(ctx, Transition{Status: StatusAwaitingSignature})

	tx, err := executor.CreateTransaction(ctx, calls)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("creating vault transaction: %w", err))
	}

	signed, err := executor.SignTransaction(ctx, tx)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrSignatureRejected, err))
	}

	s.emit(ctx, Transition{Status: StatusBroadcasting})

	txHash, err := executor.ExecuteTransaction(ctx, signed)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrSubmissionFailed, err))
	}

	// With a threshold above one, this single signature cannot finalize the
	// transaction: the broadcast only records it on chain for co-signers.
	// Report the advisory terminal state instead of claiming confirmation.
	status := StatusConfirmed
	if snapshot.Threshold > 1 {
		status = StatusAwaitingConfirmations
	}

	s.emit(ctx, Transition{Status: status, TxHash: txHash})

	return Result{
		Status:      status,
		TxHash:      txHash,
		ExplorerURL: cc.TransactionURL(txHash),
		Finalized:   status == StatusConfirmed,
	}, nil
}

// executeGasless drives the sponsored account-abstraction path: build and
// sign the user operation, submit it to the bundler, then poll for its
// receipt until one appears or the context ends.
func (s *service) executeGasless(ctx context.Context, cc chains.Context, intent Intent, calls []Call, transport wallet.Transport) (Result, error) {
	s.emit(ctx, Transition{Status: StatusAwaitingSignature})

	client, err := s.operations.Client(ctx, transport, intent.VaultAddress, cc)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("initializing operation client: %w", err))
	}

	op, err := client.CreateOperation(ctx, calls)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("creating operation: %w", err))
	}

	signed, err := client.SignOperation(ctx, op)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrSignatureRejected, err))
	}

	s.emit(ctx, Transition{Status: StatusSubmitting})

	opHash, err := client.SubmitOperation(ctx, signed)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrSubmissionFailed, err))
	}

	s.emit(ctx, Transition{Status: StatusPolling, OperationHash: opHash})

	receipt, err := s.pollReceipt(ctx, client, opHash)
	if err != nil {
		return s.fail(ctx, err)
	}

	s.emit(ctx, Transition{Status: StatusConfirmed, TxHash: receipt.TransactionHash, OperationHash: opHash})

	return Result{
		Status:        StatusConfirmed,
		TxHash:        receipt.TransactionHash,
		OperationHash: opHash,
		ExplorerURL:   cc.TransactionURL(receipt.TransactionHash),
		Finalized:     true,
	}, nil
}

// pollReceipt requests the operation's receipt at the configured fixed
// interval until the bundler returns one. There is no attempt cap: a missing
// receipt is indistinguishable from "still pending", so only the caller's
// context bounds the wait. Poll errors are logged and retried on the next
// tick.
func (s *service) pollReceipt(ctx context.Context, client OperationClient, opHash string) (*OperationReceipt, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for operation receipt: %w", ctx.Err())
		case <-ticker.C:
		}

		receipt, err := client.OperationReceipt(ctx, opHash)
		if err != nil {
			logger.Warn(ctx, "operation receipt poll failed",
				"operation.hash", opHash,
				"error", err,
			)
			continue
		}

		if receipt != nil {
			return receipt, nil
		}
	}
}
