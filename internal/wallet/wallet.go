// Package wallet resolves the connected signer's wallet into a transport bound
// to a target chain. It distinguishes "no authenticated signer" from "wallet
// not yet enumerated", which callers must treat as fatal and transient
// respectively.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNoSigner indicates that no authenticated signer address is available.
	// Fatal for the current operation.
	ErrNoSigner = errors.New("no authenticated signer")

	// ErrTransportNotReady indicates the wallet subsystem has not yet
	// enumerated a handle matching the signer. Transient: callers should retry
	// on the next readiness signal instead of failing permanently.
	ErrTransportNotReady = errors.New("wallet transport not ready")
)

// Transport is an opaque handle for chain-bound read/write calls. Signature
// requests and transaction submission travel over the same call surface
// (eth_signTypedData_v4, eth_sendTransaction, ...), so a single Call method
// covers every interaction the application performs through the wallet.
type Transport interface {
	// ChainID returns the chain this transport is bound to.
	ChainID() string

	// SignerAddress returns the address of the authenticated signer behind
	// this transport.
	SignerAddress() string

	// Call issues a JSON-RPC request through the wallet's provider and returns
	// the raw result.
	Call(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// SignerSession exposes the currently authenticated signer, if any. It is an
// external collaborator (session handling is out of scope for this core).
type SignerSession interface {
	// SignerAddress returns the authenticated signer's address, or an empty
	// string when no signer is authenticated.
	SignerAddress(ctx context.Context) (string, error)
}

// Handle represents one connected wallet as enumerated by the wallet
// subsystem.
type Handle interface {
	// Address returns the wallet's account address.
	Address() string

	// ActiveChainID returns the chain the wallet is currently switched to.
	ActiveChainID(ctx context.Context) (string, error)

	// SwitchChain asks the wallet to switch to the target chain. The wallet
	// may prompt the user; the call blocks until the switch completes or
	// fails and must not be raced.
	SwitchChain(ctx context.Context, chainID string) error

	// Transport returns a transport bound to the given chain. Callers must
	// only invoke this after the wallet's active chain matches chainID.
	Transport(chainID string) Transport
}

// HandleEnumerator lists the wallets currently connected. Enumeration is
// asynchronous in the wallet subsystem, so a signer may be authenticated
// before its handle appears here.
type HandleEnumerator interface {
	Handles(ctx context.Context) ([]Handle, error)
}
