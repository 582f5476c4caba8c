// Package vaultbook manages the per-chain set of tracked vault accounts. It
// keeps the list de-duplicated under case-insensitive address comparison and
// seeds a fixed default set on the primary chain.
package vaultbook

import "context"

// Service defines the operations for maintaining the tracked vault set.
//
// Implementations validate input and delegate persistence to the configured
// VaultStorage. All operations are idempotent: duplicate adds and removals of
// absent addresses succeed without effect.
type Service interface {
	// ListVaults returns the tracked vault addresses for a chain, defaults
	// first on the primary chain, de-duplicated case-insensitively.
	ListVaults(ctx context.Context, chainID string) ([]string, error)

	// StartWatching registers a vault address for tracking on a chain.
	StartWatching(ctx context.Context, chainID, address string) error

	// StopWatching removes a vault address from tracking on a chain.
	StopWatching(ctx context.Context, chainID, address string) error
}

// service is the concrete implementation of the Service interface.
type service struct {
	vaultStorage VaultStorage
}

// Ensure compile-time compliance with the Service interface.
var _ Service = (*service)(nil)

// New creates a vaultbook service backed by the provided VaultStorage.
func New(vs VaultStorage) *service {
	return &service{
		vaultStorage: vs,
	}
}
