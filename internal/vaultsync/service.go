// Package vaultsync synchronizes the tracked vault set against the chain. It
// fans one concurrent fetch unit out per vault, tolerates per-vault failure
// without aborting the batch, and merges the owner sets of every successful
// snapshot for downstream identity resolution.
package vaultsync

import (
	"context"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/resilience/retry"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// Service synchronizes vault snapshots for a chain.
type Service interface {
	// Synchronize fetches a snapshot for every address over the given
	// transport. Successful snapshots and per-address failures are returned
	// side by side, both in input order; an empty address list short-circuits
	// without issuing any calls.
	//
	// The returned error is non-nil only for whole-batch conditions: an
	// unsupported chain, or a transport that is not ready (detectable with
	// errors.Is against wallet.ErrTransportNotReady, and retriable on the
	// next readiness signal).
	Synchronize(ctx context.Context, chainID string, addresses []string, transport wallet.Transport) (Result, error)
}

type service struct {
	chains chains.Registry
	vaults VaultReaderFactory
	assets AssetReader

	retry retry.Retry
}

var _ Service = (*service)(nil)

type config struct {
	retry retry.Retry
}

// Option configures the synchronizer.
type Option func(*config)

// WithRetry makes every protocol read go through the given retry policy.
// Off by default: a failed read fails its whole unit on the first attempt.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// New creates a synchronizer over the given chain registry, vault reader
// factory, and asset reader.
func New(cr chains.Registry, vaults VaultReaderFactory, assets AssetReader, opts ...Option) *service {
	cfg := config{
		retry: nil,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		chains: cr,
		vaults: vaults,
		assets: assets,
		retry:  cfg.retry,
	}
}
