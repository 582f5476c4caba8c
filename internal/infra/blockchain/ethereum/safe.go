package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/nocturnelabs/vaultdesk/internal/transfer"
	"github.com/nocturnelabs/vaultdesk/internal/vaultsync"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// Vault account function selectors (Safe-compatible contracts).
const (
	selectorGetOwners           = "a0e67e2b" // getOwners()
	selectorGetThreshold        = "e75235b8" // getThreshold()
	selectorVersion             = "ffa1ad74" // VERSION()
	selectorGetModulesPaginated = "cc2f8452" // getModulesPaginated(address,uint256)
	selectorIsOwner             = "2f54bf6e" // isOwner(address)
	selectorNonce               = "affed0e0" // nonce()
	selectorExecTransaction     = "6a761202" // execTransaction(...)
)

// moduleSentinel starts module pagination at the head of the linked list.
const moduleSentinel = "0x0000000000000000000000000000000000000001"

// modulePageSize bounds one pagination read; vaults with more enabled modules
// than this are not expected in practice.
const modulePageSize = 100

// zeroAddress is used for unset gas token and refund receiver fields.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// VaultClientFactory builds protocol clients bound to one vault over one
// transport. It serves both the synchronizer's read boundary and the
// executor's standard-path boundary.
type VaultClientFactory struct{}

var (
	_ vaultsync.VaultReaderFactory  = (*VaultClientFactory)(nil)
	_ transfer.VaultExecutorFactory = (*VaultClientFactory)(nil)
)

// NewVaultClientFactory creates the vault protocol client factory.
func NewVaultClientFactory() *VaultClientFactory {
	return &VaultClientFactory{}
}

// Reader returns a read client bound to (transport, vaultAddress).
func (f *VaultClientFactory) Reader(transport wallet.Transport, vaultAddress string) vaultsync.VaultReader {
	return &vaultClient{transport: transport, vault: vaultAddress}
}

// Executor returns a standard-path execution client bound to
// (transport, vaultAddress).
func (f *VaultClientFactory) Executor(transport wallet.Transport, vaultAddress string) transfer.VaultExecutor {
	return &vaultClient{transport: transport, vault: vaultAddress}
}

// vaultClient talks to one vault contract through the wallet transport, for
// both configuration reads and standard-path transaction execution.
type vaultClient struct {
	transport wallet.Transport
	vault     string
}

var (
	_ vaultsync.VaultReader  = (*vaultClient)(nil)
	_ transfer.VaultExecutor = (*vaultClient)(nil)
)

func (c *vaultClient) read(ctx context.Context, selector string, args ...abiValue) (returnData, error) {
	data, err := encodeCall(selector, args...)
	if err != nil {
		return returnData{}, err
	}
	return ethCall(ctx, c.transport, c.vault, data)
}

func (c *vaultClient) Owners(ctx context.Context) ([]string, error) {
	result, err := c.read(ctx, selectorGetOwners)
	if err != nil {
		return nil, fmt.Errorf("reading owners: %w", err)
	}
	return result.addressArrayAt(0)
}

func (c *vaultClient) Threshold(ctx context.Context) (int, error) {
	result, err := c.read(ctx, selectorGetThreshold)
	if err != nil {
		return 0, fmt.Errorf("reading threshold: %w", err)
	}

	v, err := result.uint(0)
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func (c *vaultClient) Version(ctx context.Context) (string, error) {
	result, err := c.read(ctx, selectorVersion)
	if err != nil {
		return "", fmt.Errorf("reading version: %w", err)
	}
	return result.stringAt(0)
}

func (c *vaultClient) Modules(ctx context.Context) ([]string, error) {
	start, err := addressWord(moduleSentinel)
	if err != nil {
		return nil, err
	}
	pageSize, err := uintWord(big.NewInt(modulePageSize))
	if err != nil {
		return nil, err
	}

	result, err := c.read(ctx, selectorGetModulesPaginated, staticValue(start), staticValue(pageSize))
	if err != nil {
		return nil, fmt.Errorf("reading modules: %w", err)
	}

	// Result is (address[] modules, address next); only the array matters at
	// the supported page size.
	return result.addressArrayAt(0)
}

// IsOwner reports whether the given address is an owner of the vault.
func (c *vaultClient) IsOwner(ctx context.Context, address string) (bool, error) {
	owner, err := addressWord(address)
	if err != nil {
		return false, err
	}

	result, err := c.read(ctx, selectorIsOwner, staticValue(owner))
	if err != nil {
		return false, fmt.Errorf("reading ownership of %s: %w", address, err)
	}
	return result.bool(0)
}

// CreateTransaction builds a standard-path transaction from the batched call,
// pinning the vault's current nonce. Exactly one call per transaction is
// supported; multi-call batches would require a delegate-call multiplexer.
func (c *vaultClient) CreateTransaction(ctx context.Context, calls []transfer.Call) (transfer.VaultTransaction, error) {
	if len(calls) != 1 {
		return transfer.VaultTransaction{}, fmt.Errorf("expected exactly one call, got %d", len(calls))
	}

	result, err := c.read(ctx, selectorNonce)
	if err != nil {
		return transfer.VaultTransaction{}, fmt.Errorf("reading vault nonce: %w", err)
	}

	nonce, err := result.uint(0)
	if err != nil {
		return transfer.VaultTransaction{}, err
	}

	return transfer.VaultTransaction{
		Calls: calls,
		Nonce: nonce.Uint64(),
	}, nil
}

// SignTransaction asks the wallet to sign the transaction's EIP-712 digest.
// The wallet may prompt the user and the call blocks until it answers.
func (c *vaultClient) SignTransaction(ctx context.Context, tx transfer.VaultTransaction) (transfer.VaultTransaction, error) {
	if len(tx.Calls) != 1 {
		return transfer.VaultTransaction{}, fmt.Errorf("expected exactly one call, got %d", len(tx.Calls))
	}

	typedData, err := c.transactionTypedData(tx)
	if err != nil {
		return transfer.VaultTransaction{}, err
	}

	signature, err := callString(ctx, c.transport, "eth_signTypedData_v4", c.transport.SignerAddress(), typedData)
	if err != nil {
		return transfer.VaultTransaction{}, err
	}

	tx.Signature = signature
	return tx, nil
}

// ExecuteTransaction broadcasts the signed transaction through the wallet and
// returns the resulting transaction hash. With a threshold above one the
// broadcast only records this signature's approval on chain; the contract
// performs the partial-execution bookkeeping.
func (c *vaultClient) ExecuteTransaction(ctx context.Context, tx transfer.VaultTransaction) (string, error) {
	if len(tx.Calls) != 1 {
		return "", fmt.Errorf("expected exactly one call, got %d", len(tx.Calls))
	}
	call := tx.Calls[0]

	to, err := addressWord(call.To)
	if err != nil {
		return "", err
	}
	value, err := uintWord(call.Value)
	if err != nil {
		return "", err
	}
	zeroWord, err := uintWord(big.NewInt(0))
	if err != nil {
		return "", err
	}
	zeroAddr, err := addressWord(zeroAddress)
	if err != nil {
		return "", err
	}

	data, err := encodeCall(selectorExecTransaction,
		staticValue(to),        // to
		staticValue(value),     // value
		bytesValue(call.Data),  // data
		staticValue(zeroWord),  // operation: call
		staticValue(zeroWord),  // safeTxGas
		staticValue(zeroWord),  // baseGas
		staticValue(zeroWord),  // gasPrice
		staticValue(zeroAddr),  // gasToken
		staticValue(zeroAddr),  // refundReceiver
		bytesValue(tx.Signature),
	)
	if err != nil {
		return "", err
	}

	return callString(ctx, c.transport, "eth_sendTransaction", map[string]any{
		"from":  c.transport.SignerAddress(),
		"to":    c.vault,
		"data":  data,
		"value": "0x0",
	})
}

// transactionTypedData renders the EIP-712 document the wallet signs for a
// standard-path transaction.
func (c *vaultClient) transactionTypedData(tx transfer.VaultTransaction) (string, error) {
	call := tx.Calls[0]

	chainID, err := strconv.ParseUint(c.transport.ChainID(), 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed chain id %q: %w", c.transport.ChainID(), err)
	}

	doc := map[string]any{
		"types": map[string]any{
			"EIP712Domain": []map[string]string{
				{"name": "chainId", "type": "uint256"},
				{"name": "verifyingContract", "type": "address"},
			},
			"SafeTx": []map[string]string{
				{"name": "to", "type": "address"},
				{"name": "value", "type": "uint256"},
				{"name": "data", "type": "bytes"},
				{"name": "operation", "type": "uint8"},
				{"name": "safeTxGas", "type": "uint256"},
				{"name": "baseGas", "type": "uint256"},
				{"name": "gasPrice", "type": "uint256"},
				{"name": "gasToken", "type": "address"},
				{"name": "refundReceiver", "type": "address"},
				{"name": "nonce", "type": "uint256"},
			},
		},
		"primaryType": "SafeTx",
		"domain": map[string]any{
			"chainId":           chainID,
			"verifyingContract": c.vault,
		},
		"message": map[string]any{
			"to":             call.To,
			"value":          call.Value.String(),
			"data":           call.Data,
			"operation":      0,
			"safeTxGas":      "0",
			"baseGas":        "0",
			"gasPrice":       "0",
			"gasToken":       zeroAddress,
			"refundReceiver": zeroAddress,
			"nonce":          strconv.FormatUint(tx.Nonce, 10),
		},
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
