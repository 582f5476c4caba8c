package transfer

import (
	"fmt"
	"math/big"

	"github.com/nocturnelabs/vaultdesk/internal/pkg/types"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/validator"
)

// Intent is a caller-supplied transfer request: move Amount of the chain's
// asset from the vault at VaultAddress to Destination.
type Intent struct {
	ChainID      string `validate:"required"`          // target chain identifier
	VaultAddress string `validate:"required,eth_addr"` // vault the transfer is executed from
	Destination  string `validate:"required,eth_addr"` // recipient address
	Amount       string `validate:"required"`          // human-readable decimal amount (e.g. "10.5")
}

// validate checks the intent's shape and converts Amount into base units at
// the asset's decimals. The amount must be strictly positive.
func (i Intent) validate(decimals uint8) (*big.Int, error) {
	if err := validator.Validate(i); err != nil {
		return nil, err
	}

	units, err := types.ParseDecimal(i.Amount, decimals)
	if err != nil {
		return nil, err
	}

	if units.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %q", types.ErrMalformedAmount, i.Amount)
	}

	return units, nil
}
