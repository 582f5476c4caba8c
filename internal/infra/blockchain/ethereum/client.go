// Package ethereum implements the application's on-chain boundaries over
// JSON-RPC: ERC-20 asset reads and transfer encoding, the vault account
// protocol (owners, threshold, modules, transaction build/sign/broadcast),
// and the ERC-4337 bundler/paymaster flow. All contract calldata is encoded
// against a minimal, hand-picked ABI surface.
package ethereum

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// ethCall performs a read-only contract call over the given transport and
// returns the raw hex result.
func ethCall(ctx context.Context, transport wallet.Transport, to, data string) (returnData, error) {
	raw, err := transport.Call(ctx, "eth_call", map[string]any{
		"to":   to,
		"data": data,
	}, "latest")
	if err != nil {
		return returnData{}, err
	}

	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return returnData{}, fmt.Errorf("malformed eth_call result: %w", err)
	}

	return newReturnData(result), nil
}

// callString performs eth_call and returns the raw hex result unchanged.
func callString(ctx context.Context, transport wallet.Transport, method string, params ...any) (string, error) {
	raw, err := transport.Call(ctx, method, params...)
	if err != nil {
		return "", err
	}

	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("malformed %s result: %w", method, err)
	}
	return result, nil
}
