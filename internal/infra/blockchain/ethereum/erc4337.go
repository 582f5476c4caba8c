package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/transport/jsonrpc"
	"github.com/nocturnelabs/vaultdesk/internal/transfer"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// entryPointAddress is the canonical ERC-4337 entry point the bundler and
// paymaster operate against.
const entryPointAddress = "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"

// selectorExecuteUserOp wraps a user operation's inner call for the vault's
// account-abstraction module: executeUserOp(address,uint256,bytes,uint8).
const selectorExecuteUserOp = "7bb37428"

// OperationClientFactory initializes sponsored user-operation clients against
// a chain's bundler and paymaster endpoints.
type OperationClientFactory struct {
	httpClient *http.Client
}

var _ transfer.OperationClientFactory = (*OperationClientFactory)(nil)

// NewOperationClientFactory creates the factory. The HTTP client is shared by
// every bundler and paymaster connection it opens.
func NewOperationClientFactory(httpClient *http.Client) *OperationClientFactory {
	return &OperationClientFactory{
		httpClient: httpClient,
	}
}

// Client binds an operation client to (transport, vault) with the chain's
// bundler endpoint and its paymaster endpoint in sponsored mode.
func (f *OperationClientFactory) Client(ctx context.Context, transport wallet.Transport, vaultAddress string, cc chains.Context) (transfer.OperationClient, error) {
	return &operationClient{
		transport: transport,
		vault:     vaultAddress,
		module:    cc.ModuleAddress,
		bundler:   jsonrpc.NewClient(f.httpClient, cc.BundlerEndpoint),
		paymaster: jsonrpc.NewClient(f.httpClient, cc.PaymasterURL),
		sponsored: true,
	}, nil
}

type operationClient struct {
	transport wallet.Transport
	vault     string
	module    string
	bundler   jsonrpc.Client
	paymaster jsonrpc.Client
	sponsored bool
}

var _ transfer.OperationClient = (*operationClient)(nil)

// sponsorshipResponse is the paymaster's pm_sponsorUserOperation result.
type sponsorshipResponse struct {
	Paymaster     string `json:"paymaster"`
	PaymasterData string `json:"paymasterAndData"`
}

// CreateOperation builds a user operation from the batched call and, in
// sponsored mode, attaches the paymaster's sponsorship data.
func (c *operationClient) CreateOperation(ctx context.Context, calls []transfer.Call) (transfer.UserOperation, error) {
	if len(calls) != 1 {
		return transfer.UserOperation{}, fmt.Errorf("expected exactly one call, got %d", len(calls))
	}
	call := calls[0]

	nonceResult, err := ethCall(ctx, c.transport, c.vault, "0x"+selectorNonce)
	if err != nil {
		return transfer.UserOperation{}, fmt.Errorf("reading vault nonce: %w", err)
	}
	nonce, err := nonceResult.uint(0)
	if err != nil {
		return transfer.UserOperation{}, err
	}

	callData, err := c.encodeExecuteUserOp(call)
	if err != nil {
		return transfer.UserOperation{}, err
	}

	op := transfer.UserOperation{
		Sender:   c.vault,
		Nonce:    nonce.String(),
		CallData: callData,
	}

	if !c.sponsored {
		return op, nil
	}

	raw, err := c.paymaster.Fetch(ctx, "pm_sponsorUserOperation", c.wireOperation(op), entryPointAddress)
	if err != nil {
		return transfer.UserOperation{}, fmt.Errorf("requesting sponsorship: %w", err)
	}

	var sponsorship sponsorshipResponse
	if err := json.Unmarshal(raw, &sponsorship); err != nil {
		return transfer.UserOperation{}, fmt.Errorf("malformed sponsorship response: %w", err)
	}

	op.Paymaster = sponsorship.Paymaster
	op.PaymasterData = sponsorship.PaymasterData
	return op, nil
}

// SignOperation asks the wallet to sign the operation's EIP-712 digest for
// the vault's account-abstraction module.
func (c *operationClient) SignOperation(ctx context.Context, op transfer.UserOperation) (transfer.UserOperation, error) {
	typedData, err := c.operationTypedData(op)
	if err != nil {
		return transfer.UserOperation{}, err
	}

	signature, err := callString(ctx, c.transport, "eth_signTypedData_v4", c.transport.SignerAddress(), typedData)
	if err != nil {
		return transfer.UserOperation{}, err
	}

	op.Signature = signature
	return op, nil
}

// SubmitOperation dispatches the signed operation to the bundler and returns
// the operation hash.
func (c *operationClient) SubmitOperation(ctx context.Context, op transfer.UserOperation) (string, error) {
	raw, err := c.bundler.Fetch(ctx, "eth_sendUserOperation", c.wireOperation(op), entryPointAddress)
	if err != nil {
		return "", err
	}

	var opHash string
	if err := json.Unmarshal(raw, &opHash); err != nil {
		return "", fmt.Errorf("malformed operation hash: %w", err)
	}
	return opHash, nil
}

// operationReceiptResponse is the bundler's eth_getUserOperationReceipt
// result.
type operationReceiptResponse struct {
	UserOpHash string `json:"userOpHash"`
	Success    bool   `json:"success"`
	Receipt    struct {
		TransactionHash string `json:"transactionHash"`
	} `json:"receipt"`
}

// OperationReceipt fetches the operation's settlement receipt, returning nil
// while the bundler has not included it yet.
func (c *operationClient) OperationReceipt(ctx context.Context, operationHash string) (*transfer.OperationReceipt, error) {
	raw, err := c.bundler.Fetch(ctx, "eth_getUserOperationReceipt", operationHash)
	if err != nil {
		return nil, err
	}

	// The bundler answers null until the operation is mined.
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var resp operationReceiptResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed operation receipt: %w", err)
	}

	return &transfer.OperationReceipt{
		OperationHash:   operationHash,
		TransactionHash: resp.Receipt.TransactionHash,
		Success:         resp.Success,
	}, nil
}

// encodeExecuteUserOp wraps the inner call for the account-abstraction
// module: executeUserOp(to, value, data, operation=call).
func (c *operationClient) encodeExecuteUserOp(call transfer.Call) (string, error) {
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

	return encodeCall(selectorExecuteUserOp,
		staticValue(to),
		staticValue(value),
		bytesValue(call.Data),
		staticValue(zeroWord),
	)
}

// wireOperation renders the operation in the JSON shape bundler and paymaster
// endpoints expect.
func (c *operationClient) wireOperation(op transfer.UserOperation) map[string]any {
	wire := map[string]any{
		"sender":   op.Sender,
		"nonce":    op.Nonce,
		"callData": op.CallData,
	}
	if op.Paymaster != "" {
		wire["paymaster"] = op.Paymaster
	}
	if op.PaymasterData != "" {
		wire["paymasterAndData"] = op.PaymasterData
	}
	if op.Signature != "" {
		wire["signature"] = op.Signature
	}
	return wire
}

// operationTypedData renders the EIP-712 document the wallet signs for a user
// operation, domained on the vault's account-abstraction module.
func (c *operationClient) operationTypedData(op transfer.UserOperation) (string, error) {
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
			"SafeOp": []map[string]string{
				{"name": "safe", "type": "address"},
				{"name": "nonce", "type": "uint256"},
				{"name": "callData", "type": "bytes"},
				{"name": "paymasterAndData", "type": "bytes"},
				{"name": "entryPoint", "type": "address"},
			},
		},
		"primaryType": "SafeOp",
		"domain": map[string]any{
			"chainId":           chainID,
			"verifyingContract": c.module,
		},
		"message": map[string]any{
			"safe":             op.Sender,
			"nonce":            op.Nonce,
			"callData":         op.CallData,
			"paymasterAndData": op.PaymasterData,
			"entryPoint":       entryPointAddress,
		},
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
