// Package identity maintains the session-scoped mapping from owner addresses
// to human-readable identities, fed by a backend resolution service. Entries
// are only ever added during a session; a failed resolution never clears what
// is already known.
package identity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
)

// ErrResolutionFailed indicates the resolver call failed. Non-fatal: the
// previously resolved identities remain available unchanged.
var ErrResolutionFailed = errors.New("identity resolution failed")

// Resolver is the boundary to the backend identity-resolution service. One
// call resolves a whole batch of addresses.
type Resolver interface {
	// Resolve maps each known address to its display identity. Addresses
	// without a known identity may be absent from the result.
	Resolve(ctx context.Context, addresses []string) (map[string]string, error)
}

// Service accumulates owner identities across resolution calls.
type Service interface {
	// ResolveOwners lowercases the given addresses, resolves them in a single
	// batched call, and folds the response into the session map. An empty
	// input short-circuits without a call.
	//
	// On failure it returns an error wrapping ErrResolutionFailed and leaves
	// the session map untouched.
	ResolveOwners(ctx context.Context, addresses []string) error

	// IdentityFor returns the display identity for an address, if known.
	// Lookup is case-insensitive.
	IdentityFor(address string) (string, bool)

	// Identities returns a copy of the full session map, keyed by lowercased
	// address.
	Identities() map[string]string
}

type service struct {
	resolver Resolver

	mu         sync.RWMutex
	identities map[string]string
}

var _ Service = (*service)(nil)

func (s *service) ResolveOwners(ctx context.Context, addresses []string) error {
	if len(addresses) == 0 {
		return nil
	}

	lowered := make([]string, len(addresses))
	for i, addr := range addresses {
		lowered[i] = strings.ToLower(addr)
	}

	resolved, err := s.resolver.Resolve(ctx, lowered)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Additive merge: later resolutions may refresh an identity but never
	// remove one.
	for addr, name := range resolved {
		s.identities[strings.ToLower(addr)] = name
	}

	return nil
}

func (s *service) IdentityFor(address string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, ok := s.identities[strings.ToLower(address)]
	return name, ok
}

func (s *service) Identities() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.identities)
}

// New creates an identity service over the given resolver with an empty
// session map.
func New(r Resolver) *service {
	return &service{
		resolver:   r,
		identities: make(map[string]string),
	}
}
