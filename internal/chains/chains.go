// Package chains holds the static registry of supported networks. Every chain
// the application can operate on is described by an immutable Context record,
// validated once at process start and looked up by chain identifier afterwards.
package chains

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nocturnelabs/vaultdesk/internal/pkg/validator"
)

// ErrUnsupportedChain indicates a lookup for a chain identifier outside the
// fixed set of supported networks.
var ErrUnsupportedChain = errors.New("unsupported chain")

// Supported chain identifiers (decimal EVM chain ids as strings).
const (
	// BaseMainnet is the primary chain. Only this chain carries the built-in
	// default vault list.
	BaseMainnet = "8453"

	// BaseSepolia is the test network counterpart.
	BaseSepolia = "84532"
)

// Context describes one supported network: its RPC endpoint, the tracked asset
// contract, the account-abstraction module, the sponsorship services, and the
// block explorer. Context values are created at process start and never mutated.
type Context struct {
	ChainID         string `validate:"required"` // decimal chain identifier
	Name            string `validate:"required"` // human-readable network name
	RPCEndpoint     string `validate:"required,url"`
	AssetAddress    string `validate:"required,eth_addr"` // ERC-20 asset tracked per vault
	AssetSymbol     string `validate:"required"`
	AssetDecimals   uint8  `validate:"required"`
	ModuleAddress   string `validate:"required,eth_addr"` // account-abstraction module contract
	BundlerEndpoint string `validate:"required,url"`
	PaymasterURL    string `validate:"required,url"`
	ExplorerBaseURL string `validate:"required,url"`
}

// HasModule reports whether the chain's account-abstraction module address is
// present in the given module list, compared case-insensitively.
func (c Context) HasModule(modules []string) bool {
	for _, m := range modules {
		if strings.EqualFold(m, c.ModuleAddress) {
			return true
		}
	}
	return false
}

// TransactionURL builds a block-explorer link for the given transaction hash.
func (c Context) TransactionURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", strings.TrimSuffix(c.ExplorerBaseURL, "/"), txHash)
}

// Registry resolves chain identifiers to their Context.
type Registry interface {
	// Context returns the Context for the given chain identifier, or
	// ErrUnsupportedChain if the chain is not part of the registry.
	Context(chainID string) (Context, error)

	// All returns every registered Context.
	All() []Context
}

type registry struct {
	byID  map[string]Context
	order []string
}

var _ Registry = (*registry)(nil)

func (r *registry) Context(chainID string) (Context, error) {
	cc, ok := r.byID[chainID]
	if !ok {
		return Context{}, fmt.Errorf("%w: %q", ErrUnsupportedChain, chainID)
	}
	return cc, nil
}

func (r *registry) All() []Context {
	out := make([]Context, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// New builds a Registry from the given Contexts, validating each record.
//
// Returns an error if any Context fails validation or two Contexts share a
// chain identifier.
func New(contexts ...Context) (*registry, error) {
	r := &registry{
		byID: make(map[string]Context, len(contexts)),
	}

	for _, cc := range contexts {
		if err := validator.Validate(cc); err != nil {
			return nil, fmt.Errorf("chain %q: %w", cc.ChainID, err)
		}

		if _, exists := r.byID[cc.ChainID]; exists {
			return nil, fmt.Errorf("chain %q registered twice", cc.ChainID)
		}

		r.byID[cc.ChainID] = cc
		r.order = append(r.order, cc.ChainID)
	}

	return r, nil
}

// Default returns the registry of networks the application ships with: Base
// mainnet (primary) and Base Sepolia, both tracking native USDC. The RPC
// endpoints may be overridden per deployment before constructing the registry.
func Default(baseRPC, sepoliaRPC string) (*registry, error) {
	return New(
		Context{
			ChainID:         BaseMainnet,
			Name:            "Base",
			RPCEndpoint:     baseRPC,
			AssetAddress:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			AssetSymbol:     "USDC",
			AssetDecimals:   6,
			ModuleAddress:   "0xa581c4A4DB7175302464fF3C06380BC3270b4037",
			BundlerEndpoint: "https://api.pimlico.io/v2/8453/rpc",
			PaymasterURL:    "https://api.pimlico.io/v2/8453/rpc",
			ExplorerBaseURL: "https://basescan.org",
		},
		Context{
			ChainID:         BaseSepolia,
			Name:            "Base Sepolia",
			RPCEndpoint:     sepoliaRPC,
			AssetAddress:    "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
			AssetSymbol:     "USDC",
			AssetDecimals:   6,
			ModuleAddress:   "0xa581c4A4DB7175302464fF3C06380BC3270b4037",
			BundlerEndpoint: "https://api.pimlico.io/v2/84532/rpc",
			PaymasterURL:    "https://api.pimlico.io/v2/84532/rpc",
			ExplorerBaseURL: "https://sepolia.basescan.org",
		},
	)
}
