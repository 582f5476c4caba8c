package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nocturnelabs/vaultdesk/internal/transfer"
	"github.com/nocturnelabs/vaultdesk/internal/vaultsync"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// ERC-20 function selectors.
const (
	selectorBalanceOf = "70a08231" // balanceOf(address)
	selectorTransfer  = "a9059cbb" // transfer(address,uint256)
)

// AssetClient reads ERC-20 balances and encodes ERC-20 transfers.
type AssetClient struct{}

var (
	_ vaultsync.AssetReader    = (*AssetClient)(nil)
	_ transfer.TransferEncoder = (*AssetClient)(nil)
)

// NewAssetClient creates the ERC-20 asset client.
func NewAssetClient() *AssetClient {
	return &AssetClient{}
}

// BalanceOf returns the asset balance of account in base units.
func (c *AssetClient) BalanceOf(ctx context.Context, transport wallet.Transport, assetAddress, account string) (*big.Int, error) {
	owner, err := addressWord(account)
	if err != nil {
		return nil, err
	}

	data, err := encodeCall(selectorBalanceOf, staticValue(owner))
	if err != nil {
		return nil, err
	}

	result, err := ethCall(ctx, transport, assetAddress, data)
	if err != nil {
		return nil, fmt.Errorf("reading balance of %s: %w", account, err)
	}

	return result.uint(0)
}

// EncodeTransfer returns transfer(to, amount) calldata.
func (c *AssetClient) EncodeTransfer(to string, amount *big.Int) (string, error) {
	recipient, err := addressWord(to)
	if err != nil {
		return "", err
	}

	units, err := uintWord(amount)
	if err != nil {
		return "", err
	}

	return encodeCall(selectorTransfer, staticValue(recipient), staticValue(units))
}
