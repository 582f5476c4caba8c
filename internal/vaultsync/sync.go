package vaultsync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"sync"

	"github.com/nocturnelabs/vaultdesk/internal/chains"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/logger"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/types"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// outcome is the result slot of one per-address fetch unit. Exactly one of
// snapshot/err is meaningful, matching the whole-unit success-or-failure rule.
type outcome struct {
	snapshot Snapshot
	err      error
}

func (s *service) Synchronize(ctx context.Context, chainID string, addresses []string, transport wallet.Transport) (Result, error) {
	if len(addresses) == 0 {
		return Result{}, nil
	}

	cc, err := s.chains.Context(chainID)
	if err != nil {
		return Result{}, err
	}

	// Malformed tracked entries are skipped up front with a warning; they are
	// not fetch failures and must not consume a unit.
	valid := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !addressPattern.MatchString(addr) {
			logger.Warn(ctx, "skipping invalid tracked address", "chain.id", chainID, "vault.address", addr)
			continue
		}
		valid = append(valid, addr)
	}
	if len(valid) == 0 {
		return Result{}, nil
	}

	// One goroutine per address writing into its own preallocated slot: units
	// race freely, a failing unit never cancels its siblings, and assembly
	// below restores input order.
	outcomes := make([]outcome, len(valid))

	var wg sync.WaitGroup
	for i, addr := range valid {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()

			snapshot, err := s.fetchSnapshot(ctx, cc, addr, transport)
			outcomes[i] = outcome{snapshot: snapshot, err: err}
		}(i, addr)
	}
	wg.Wait()

	return s.assemble(ctx, valid, outcomes)
}

// assemble folds the per-unit outcomes into a Result, preserving input order
// on both sides and computing the deduplicated merged owner set.
func (s *service) assemble(ctx context.Context, addresses []string, outcomes []outcome) (Result, error) {
	var (
		result Result
		seen   = types.NewSet[string]()
	)
	for i, oc := range outcomes {
		if oc.err != nil {
			result.Failures = append(result.Failures, FetchFailure{
				Address: addresses[i],
				Err:     oc.err,
			})
			continue
		}

		result.Snapshots = append(result.Snapshots, oc.snapshot)
		result.MergedOwners = mergeOwners(result.MergedOwners, seen, oc.snapshot.Owners)
	}

	// A batch where every unit failed and the transport was not ready is a
	// transient whole-batch condition, not N independent failures: surface it
	// as such so the caller retries the pass on the next readiness signal.
	// Any unit may carry the signal; unrelated failures in the same batch do
	// not mask it.
	if len(result.Snapshots) == 0 && len(result.Failures) > 0 {
		for _, failure := range result.Failures {
			if errors.Is(failure.Err, wallet.ErrTransportNotReady) {
				return Result{}, failure.Err
			}
		}

		logger.Warn(ctx, "synchronization pass yielded no snapshots",
			"failures", len(result.Failures),
		)
	}

	return result, nil
}

// mergeOwners appends each owner to merged unless already present under
// case-insensitive comparison, keeping first-seen form and order. The seen set
// tracks lowercased forms across calls.
func mergeOwners(merged []string, seen types.Set[string], owners []string) []string {
	for _, owner := range owners {
		key := strings.ToLower(owner)
		if _, ok := seen[key]; ok {
			continue
		}

		seen.Add(key)
		merged = append(merged, owner)
	}
	return merged
}

// fetchSnapshot runs one per-address unit: four protocol reads plus the asset
// balance read, all concurrent within the unit. The unit succeeds as a whole
// or fails as a whole; sibling units are unaffected either way.
func (s *service) fetchSnapshot(ctx context.Context, cc chains.Context, address string, transport wallet.Transport) (Snapshot, error) {
	reader := s.vaults.Reader(transport, address)

	var (
		owners    []string
		threshold int
		version   string
		modules   []string
		balance   *big.Int
	)

	reads := []func(ctx context.Context) error{
		func(ctx context.Context) (err error) {
			owners, err = reader.Owners(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			threshold, err = reader.Threshold(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			version, err = reader.Version(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			modules, err = reader.Modules(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			balance, err = s.assets.BalanceOf(ctx, transport, cc.AssetAddress, address)
			return err
		},
	}

	errs := make([]error, len(reads))

	var wg sync.WaitGroup
	for i, read := range reads {
		wg.Add(1)
		go func(i int, read func(ctx context.Context) error) {
			defer wg.Done()
			errs[i] = s.execRead(ctx, read)
		}(i, read)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return Snapshot{}, fmt.Errorf("fetching vault %s: %w", address, err)
	}

	if len(owners) == 0 {
		return Snapshot{}, fmt.Errorf("vault %s reported no owners", address)
	}
	if threshold < 1 || threshold > len(owners) {
		return Snapshot{}, fmt.Errorf("vault %s reported threshold %d outside 1..%d", address, threshold, len(owners))
	}
	if balance.Sign() < 0 {
		return Snapshot{}, fmt.Errorf("vault %s reported negative balance", address)
	}

	return Snapshot{
		ChainID:       cc.ChainID,
		Address:       address,
		Version:       version,
		Threshold:     threshold,
		Owners:        owners,
		Balance:       balance.String(),
		SignerIsOwner: containsFold(owners, transport.SignerAddress()),
		Modules:       modules,
		AAEnabled:     cc.HasModule(modules),
	}, nil
}

// execRead applies the configured retry policy around a single read, or runs
// it once when no policy is set.
func (s *service) execRead(ctx context.Context, read func(ctx context.Context) error) error {
	if s.retry == nil {
		return read(ctx)
	}

	return s.retry.Execute(ctx, func() error {
		return read(ctx)
	})
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
