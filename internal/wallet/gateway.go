package wallet

import (
	"context"
	"fmt"
	"strings"
)

// Gateway acquires a ready-to-use transport for a target chain.
//
// Acquisition resolves the authenticated signer, matches it against the
// enumerated wallet handles, and switches the wallet to the target chain
// before handing the transport back. Chain-switch-triggering acquisitions must
// be serialized per signer by the caller; the gateway itself never races two
// switches on the same handle.
type Gateway interface {
	// AcquireTransport returns a transport bound to targetChainID.
	//
	// Fails with ErrNoSigner when no signer is authenticated, and with
	// ErrTransportNotReady when the signer's wallet handle has not been
	// enumerated yet.
	AcquireTransport(ctx context.Context, targetChainID string) (Transport, error)
}

type gateway struct {
	session SignerSession
	wallets HandleEnumerator
}

var _ Gateway = (*gateway)(nil)

func (g *gateway) AcquireTransport(ctx context.Context, targetChainID string) (Transport, error) {
	signer, err := g.session.SignerAddress(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving signer: %w", err)
	}
	if signer == "" {
		return nil, ErrNoSigner
	}

	handles, err := g.wallets.Handles(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating wallets: %w", err)
	}

	var handle Handle
	for _, h := range handles {
		if strings.EqualFold(h.Address(), signer) {
			handle = h
			break
		}
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: no wallet handle for signer %s", ErrTransportNotReady, signer)
	}

	active, err := handle.ActiveChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading wallet chain: %w", err)
	}

	if active != targetChainID {
		// May prompt the user in the wallet's own UI; awaited, never raced.
		if err := handle.SwitchChain(ctx, targetChainID); err != nil {
			return nil, fmt.Errorf("switching wallet to chain %s: %w", targetChainID, err)
		}
	}

	return handle.Transport(targetChainID), nil
}

// NewGateway creates a Gateway over the given signer session and wallet
// enumerator.
func NewGateway(session SignerSession, wallets HandleEnumerator) *gateway {
	return &gateway{
		session: session,
		wallets: wallets,
	}
}
