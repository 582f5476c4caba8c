package vaultbook

import (
	"context"
	"strings"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/validator"
)

// defaultVaults is the built-in tracked set seeded on the primary chain only.
// Every other chain starts empty.
var defaultVaults = []string{
	"0x2Fb6c07A9E1cD4F1dC1E7a84C94b33602a4a0dCB",
	"0x8a29D2a5C9bF26C0eD2C97f0Cc29097F17aB4a05",
}

// VaultIdentifier uniquely identifies a tracked vault account, combining the
// chain it lives on with its contract address.
type VaultIdentifier struct {
	ChainID string `validate:"required"`          // chain identifier (e.g. chains.BaseMainnet)
	Address string `validate:"required,eth_addr"` // vault contract address
}

// VaultStorage is the persistence contract for the per-chain tracked vault
// list. Implementations store the list as an ordered sequence keyed by chain
// identifier; ordering must be preserved across read/write round trips.
type VaultStorage interface {
	// ReadVaults returns the persisted vault addresses for the given chain, in
	// insertion order. A chain with no persisted vaults yields an empty slice.
	ReadVaults(ctx context.Context, chainID string) ([]string, error)

	// WriteVaults replaces the persisted vault list for the given chain.
	WriteVaults(ctx context.Context, chainID string, addresses []string) error
}

// buildVaultIdentifier constructs and validates a VaultIdentifier from its raw
// parts. Input is validated before any persistence happens.
func buildVaultIdentifier(chainID, address string) (VaultIdentifier, error) {
	id := VaultIdentifier{
		ChainID: chainID,
		Address: address,
	}

	return id, validator.Validate(id)
}

// dedupeFold appends each address to out unless an equal entry (compared
// case-insensitively) is already present, preserving first-seen order.
func dedupeFold(out, addresses []string) []string {
	for _, addr := range addresses {
		if !containsFold(out, addr) {
			out = append(out, addr)
		}
	}
	return out
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// ListVaults returns the tracked vault addresses for the given chain.
//
// On the primary chain the built-in defaults come first, followed by persisted
// entries; everywhere else only persisted entries are returned. The result is
// de-duplicated case-insensitively.
func (s *service) ListVaults(ctx context.Context, chainID string) ([]string, error) {
	persisted, err := s.vaultStorage.ReadVaults(ctx, chainID)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(defaultVaults)+len(persisted))
	if chainID == chains.BaseMainnet {
		out = dedupeFold(out, defaultVaults)
	}

	return dedupeFold(out, persisted), nil
}

// StartWatching adds a vault address to the tracked set for the given chain.
//
// Adding an address that is already present (under case-insensitive comparison,
// defaults included) is a silent no-op.
func (s *service) StartWatching(ctx context.Context, chainID, address string) error {
	id, err := buildVaultIdentifier(chainID, address)
	if err != nil {
		return err
	}

	current, err := s.ListVaults(ctx, chainID)
	if err != nil {
		return err
	}

	if containsFold(current, id.Address) {
		return nil
	}

	persisted, err := s.vaultStorage.ReadVaults(ctx, chainID)
	if err != nil {
		return err
	}

	return s.vaultStorage.WriteVaults(ctx, chainID, append(persisted, id.Address))
}

// StopWatching removes every case-insensitive match of the given address from
// the persisted tracked set. Removing an absent address is a silent no-op.
func (s *service) StopWatching(ctx context.Context, chainID, address string) error {
	id, err := buildVaultIdentifier(chainID, address)
	if err != nil {
		return err
	}

	persisted, err := s.vaultStorage.ReadVaults(ctx, chainID)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(persisted))
	for _, addr := range persisted {
		if !strings.EqualFold(addr, id.Address) {
			kept = append(kept, addr)
		}
	}

	if len(kept) == len(persisted) {
		return nil
	}

	return s.vaultStorage.WriteVaults(ctx, chainID, kept)
}
