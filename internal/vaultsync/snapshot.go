package vaultsync

import (
	"context"
	"math/big"

	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// Snapshot is a point-in-time read of one vault account on one chain. It is
// created whole on every synchronization pass and never mutated incrementally;
// the next pass (or a chain switch) replaces it entirely.
type Snapshot struct {
	ChainID       string   // chain the snapshot was taken on
	Address       string   // vault contract address
	Version       string   // account protocol version string
	Threshold     int      // signatures required for a standard-path transaction
	Owners        []string // owner addresses, non-empty, in contract order
	Balance       string   // asset balance in base units, non-negative decimal string
	SignerIsOwner bool     // whether the transport's signer is among Owners
	Modules       []string // enabled module contract addresses
	AAEnabled     bool     // whether the chain's 4337 module is among Modules
}

// FetchFailure pairs a vault address with the error that made its snapshot
// fetch fail. One failed address never affects its siblings.
type FetchFailure struct {
	Address string
	Err     error
}

// Result aggregates one synchronization pass. Snapshots and Failures together
// cover the full input address list, each preserving input order.
type Result struct {
	Snapshots    []Snapshot
	Failures     []FetchFailure
	MergedOwners []string // deduplicated union of every snapshot's owner list
}

// VaultReader reads the on-chain configuration of a single vault account. One
// reader is bound to one (vault, transport) pair.
type VaultReader interface {
	Owners(ctx context.Context) ([]string, error)
	Threshold(ctx context.Context) (int, error)
	Version(ctx context.Context) (string, error)
	Modules(ctx context.Context) ([]string, error)
}

// VaultReaderFactory binds a VaultReader to a vault address over the given
// transport.
type VaultReaderFactory interface {
	Reader(transport wallet.Transport, vaultAddress string) VaultReader
}

// AssetReader reads ERC-20 balances over a transport.
type AssetReader interface {
	// BalanceOf returns the asset balance of account in base units.
	BalanceOf(ctx context.Context, transport wallet.Transport, assetAddress, account string) (*big.Int, error)
}
