package transfer

import (
	"context"
	"math/big"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// Call is one on-chain call inside a batched vault transaction or user
// operation.
type Call struct {
	To    string   // target contract address
	Value *big.Int // native value, zero for asset transfers
	Data  string   // hex-encoded calldata
}

// VaultTransaction is a standard-path transaction as it advances through
// build, sign, and broadcast. The protocol client owns the meaning of Nonce
// and Signature; the executor only threads the value through.
type VaultTransaction struct {
	Calls     []Call
	Nonce     uint64
	Signature string
}

// UserOperation is a gasless-path operation as it advances through build,
// sponsorship, sign, and submission.
type UserOperation struct {
	Sender        string
	Nonce         string
	CallData      string
	Paymaster     string
	PaymasterData string
	Signature     string
}

// OperationReceipt is the bundler's settlement report for a submitted
// operation.
type OperationReceipt struct {
	OperationHash   string
	TransactionHash string // settlement transaction the bundler included the op in
	Success         bool
}

// TransferEncoder encodes an asset transfer into contract calldata.
type TransferEncoder interface {
	// EncodeTransfer returns the calldata moving amount base units of the
	// asset to the given recipient.
	EncodeTransfer(to string, amount *big.Int) (string, error)
}

// VaultExecutor drives the standard multi-signature protocol for one vault
// over one transport.
type VaultExecutor interface {
	CreateTransaction(ctx context.Context, calls []Call) (VaultTransaction, error)
	SignTransaction(ctx context.Context, tx VaultTransaction) (VaultTransaction, error)
	// ExecuteTransaction broadcasts the signed transaction and returns the
	// resulting transaction identifier.
	ExecuteTransaction(ctx context.Context, tx VaultTransaction) (string, error)
}

// VaultExecutorFactory binds a VaultExecutor to a vault address over the
// given transport.
type VaultExecutorFactory interface {
	Executor(transport wallet.Transport, vaultAddress string) VaultExecutor
}

// OperationClient drives the sponsored account-abstraction protocol for one
// vault over one transport.
type OperationClient interface {
	CreateOperation(ctx context.Context, calls []Call) (UserOperation, error)
	SignOperation(ctx context.Context, op UserOperation) (UserOperation, error)
	// SubmitOperation dispatches the signed operation to the bundler and
	// returns the operation hash.
	SubmitOperation(ctx context.Context, op UserOperation) (string, error)
	// OperationReceipt returns the settlement receipt for a submitted
	// operation, or nil while the operation is still pending.
	OperationReceipt(ctx context.Context, operationHash string) (*OperationReceipt, error)
}

// OperationClientFactory initializes an OperationClient bound to the vault,
// the transport's signer, and the chain's bundler and paymaster endpoints with
// sponsorship enabled.
type OperationClientFactory interface {
	Client(ctx context.Context, transport wallet.Transport, vaultAddress string, cc chains.Context) (OperationClient, error)
}
