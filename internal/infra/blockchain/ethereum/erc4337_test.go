package ethereum

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/nocturnelabs/vaultdesk/internal/transfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonrpcStub scripts bundler/paymaster responses by method name.
type jsonrpcStub struct {
	responses map[string]string // method -> raw JSON result
	errs      map[string]error
	calls     []rpcCall
}

func newJSONRPCStub() *jsonrpcStub {
	return &jsonrpcStub{
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (s *jsonrpcStub) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	s.calls = append(s.calls, rpcCall{method: method, params: params})

	if err, ok := s.errs[method]; ok {
		return nil, err
	}
	resp, ok := s.responses[method]
	if !ok {
		return nil, errors.New("no scripted response for " + method)
	}
	return json.RawMessage(resp), nil
}

const moduleAddr = "0xa581c4A4DB7175302464fF3C06380BC3270b4037"

func newOperationClient(transport *fakeTransport, bundler, paymaster *jsonrpcStub) *operationClient {
	return &operationClient{
		transport: transport,
		vault:     testVault,
		module:    moduleAddr,
		bundler:   bundler,
		paymaster: paymaster,
		sponsored: true,
	}
}

func testCall() transfer.Call {
	return transfer.Call{
		To:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		Value: big.NewInt(0),
		Data:  "0x1234",
	}
}

func TestOperationClient_CreateOperation(t *testing.T) {
	t.Run("builds a sponsored operation", func(t *testing.T) {
		transport := newFakeTransport()
		transport.bySelector[selectorNonce] = "0x" + word("7")

		paymaster := newJSONRPCStub()
		paymaster.responses["pm_sponsorUserOperation"] = `{"paymaster":"0xPaymaster","paymasterAndData":"0xsponsorship"}`

		client := newOperationClient(transport, newJSONRPCStub(), paymaster)

		op, err := client.CreateOperation(t.Context(), []transfer.Call{testCall()})
		require.NoError(t, err)

		assert.Equal(t, testVault, op.Sender)
		assert.Equal(t, "7", op.Nonce)
		assert.True(t, strings.HasPrefix(op.CallData, "0x"+selectorExecuteUserOp))
		assert.Equal(t, "0xPaymaster", op.Paymaster)
		assert.Equal(t, "0xsponsorship", op.PaymasterData)

		// The sponsorship request goes to the paymaster against the canonical
		// entry point.
		require.Len(t, paymaster.calls, 1)
		assert.Equal(t, entryPointAddress, paymaster.calls[0].params[1])
	})

	t.Run("unsponsored mode skips the paymaster", func(t *testing.T) {
		transport := newFakeTransport()
		transport.bySelector[selectorNonce] = "0x" + word("7")

		paymaster := newJSONRPCStub()
		client := newOperationClient(transport, newJSONRPCStub(), paymaster)
		client.sponsored = false

		op, err := client.CreateOperation(t.Context(), []transfer.Call{testCall()})
		require.NoError(t, err)
		assert.Empty(t, op.Paymaster)
		assert.Empty(t, paymaster.calls)
	})

	t.Run("sponsorship failure surfaces", func(t *testing.T) {
		transport := newFakeTransport()
		transport.bySelector[selectorNonce] = "0x" + word("7")

		paymaster := newJSONRPCStub()
		sponsorErr := errors.New("sponsorship denied")
		paymaster.errs["pm_sponsorUserOperation"] = sponsorErr

		client := newOperationClient(transport, newJSONRPCStub(), paymaster)

		_, err := client.CreateOperation(t.Context(), []transfer.Call{testCall()})
		require.Error(t, err)
		assert.ErrorIs(t, err, sponsorErr)
	})

	t.Run("rejects batches of more than one call", func(t *testing.T) {
		client := newOperationClient(newFakeTransport(), newJSONRPCStub(), newJSONRPCStub())

		_, err := client.CreateOperation(t.Context(), []transfer.Call{testCall(), testCall()})
		require.Error(t, err)
	})
}

func TestOperationClient_SignOperation(t *testing.T) {
	transport := newFakeTransport()
	transport.byMethod["eth_signTypedData_v4"] = "0xsignature"

	client := newOperationClient(transport, newJSONRPCStub(), newJSONRPCStub())

	op := transfer.UserOperation{
		Sender:        testVault,
		Nonce:         "7",
		CallData:      "0xexec",
		PaymasterData: "0xsponsorship",
	}

	signed, err := client.SignOperation(t.Context(), op)
	require.NoError(t, err)
	assert.Equal(t, "0xsignature", signed.Signature)

	call, ok := transport.lastCall("eth_signTypedData_v4")
	require.True(t, ok)
	assert.Equal(t, testSigner, call.params[0])

	// The signed document is domained on the account-abstraction module, not
	// the vault.
	var doc struct {
		PrimaryType string `json:"primaryType"`
		Domain      struct {
			ChainID           uint64 `json:"chainId"`
			VerifyingContract string `json:"verifyingContract"`
		} `json:"domain"`
		Message map[string]any `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(call.params[1].(string)), &doc))

	assert.Equal(t, "SafeOp", doc.PrimaryType)
	assert.Equal(t, uint64(8453), doc.Domain.ChainID)
	assert.Equal(t, moduleAddr, doc.Domain.VerifyingContract)
	assert.Equal(t, entryPointAddress, doc.Message["entryPoint"])
	assert.Equal(t, "0xsponsorship", doc.Message["paymasterAndData"])
}

func TestOperationClient_SubmitOperation(t *testing.T) {
	t.Run("returns the bundler's operation hash", func(t *testing.T) {
		bundler := newJSONRPCStub()
		bundler.responses["eth_sendUserOperation"] = `"0xophash"`

		client := newOperationClient(newFakeTransport(), bundler, newJSONRPCStub())

		op := transfer.UserOperation{Sender: testVault, Nonce: "7", CallData: "0xexec", Signature: "0xsignature"}
		opHash, err := client.SubmitOperation(t.Context(), op)
		require.NoError(t, err)
		assert.Equal(t, "0xophash", opHash)

		require.Len(t, bundler.calls, 1)
		wire := bundler.calls[0].params[0].(map[string]any)
		assert.Equal(t, testVault, wire["sender"])
		assert.Equal(t, "0xsignature", wire["signature"])
		assert.Equal(t, entryPointAddress, bundler.calls[0].params[1])
	})

	t.Run("bundler rejection surfaces", func(t *testing.T) {
		bundler := newJSONRPCStub()
		submitErr := errors.New("op rejected")
		bundler.errs["eth_sendUserOperation"] = submitErr

		client := newOperationClient(newFakeTransport(), bundler, newJSONRPCStub())

		_, err := client.SubmitOperation(t.Context(), transfer.UserOperation{})
		require.Error(t, err)
		assert.ErrorIs(t, err, submitErr)
	})
}

func TestOperationClient_OperationReceipt(t *testing.T) {
	t.Run("pending operation yields nil", func(t *testing.T) {
		bundler := newJSONRPCStub()
		bundler.responses["eth_getUserOperationReceipt"] = "null"

		client := newOperationClient(newFakeTransport(), bundler, newJSONRPCStub())

		receipt, err := client.OperationReceipt(t.Context(), "0xophash")
		require.NoError(t, err)
		assert.Nil(t, receipt)
	})

	t.Run("settled operation yields the receipt", func(t *testing.T) {
		bundler := newJSONRPCStub()
		bundler.responses["eth_getUserOperationReceipt"] = `{
			"userOpHash": "0xophash",
			"success": true,
			"receipt": {"transactionHash": "0xtxhash"}
		}`

		client := newOperationClient(newFakeTransport(), bundler, newJSONRPCStub())

		receipt, err := client.OperationReceipt(t.Context(), "0xophash")
		require.NoError(t, err)
		require.NotNil(t, receipt)
		assert.Equal(t, "0xophash", receipt.OperationHash)
		assert.Equal(t, "0xtxhash", receipt.TransactionHash)
		assert.True(t, receipt.Success)
	})

	t.Run("bundler failure surfaces", func(t *testing.T) {
		bundler := newJSONRPCStub()
		pollErr := errors.New("bundler unavailable")
		bundler.errs["eth_getUserOperationReceipt"] = pollErr

		client := newOperationClient(newFakeTransport(), bundler, newJSONRPCStub())

		_, err := client.OperationReceipt(t.Context(), "0xophash")
		require.Error(t, err)
		assert.ErrorIs(t, err, pollErr)
	})
}
