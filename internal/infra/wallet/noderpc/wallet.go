// Package noderpc implements the wallet boundary over a JSON-RPC wallet
// provider: account enumeration via eth_accounts, chain introspection via
// eth_chainId, chain switching via wallet_switchEthereumChain, and a
// chain-bound transport whose signing and submission calls travel over the
// same provider.
package noderpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/nocturnelabs/vaultdesk/internal/pkg/transport/jsonrpc"
	"github.com/nocturnelabs/vaultdesk/internal/pkg/types"
	"github.com/nocturnelabs/vaultdesk/internal/wallet"
)

// Session is a statically configured signer session. An empty address models
// the unauthenticated state.
type Session struct {
	address string
}

var _ wallet.SignerSession = (*Session)(nil)

// NewSession creates a session for the given signer address. Pass an empty
// string for an unauthenticated session.
func NewSession(address string) *Session {
	return &Session{address: address}
}

func (s *Session) SignerAddress(ctx context.Context) (string, error) {
	return s.address, nil
}

// Provider enumerates the wallet accounts exposed by a JSON-RPC wallet
// provider.
type Provider struct {
	conn jsonrpc.Client
}

var _ wallet.HandleEnumerator = (*Provider)(nil)

// NewProvider creates a Provider over the given provider endpoint.
func NewProvider(httpClient *http.Client, providerEndpoint string) *Provider {
	return &Provider{
		conn: jsonrpc.NewClient(httpClient, providerEndpoint),
	}
}

func (p *Provider) Handles(ctx context.Context) ([]wallet.Handle, error) {
	raw, err := p.conn.Fetch(ctx, "eth_accounts")
	if err != nil {
		return nil, fmt.Errorf("enumerating accounts: %w", err)
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("malformed accounts response: %w", err)
	}

	handles := make([]wallet.Handle, 0, len(accounts))
	for _, account := range accounts {
		handles = append(handles, &handle{conn: p.conn, address: account})
	}
	return handles, nil
}

// handle is one wallet account behind the provider.
type handle struct {
	conn    jsonrpc.Client
	address string
}

var _ wallet.Handle = (*handle)(nil)

func (h *handle) Address() string {
	return h.address
}

func (h *handle) ActiveChainID(ctx context.Context) (string, error) {
	raw, err := h.conn.Fetch(ctx, "eth_chainId")
	if err != nil {
		return "", fmt.Errorf("reading active chain: %w", err)
	}

	var hexID types.Hex
	if err := json.Unmarshal(raw, &hexID); err != nil {
		return "", fmt.Errorf("malformed chain id response: %w", err)
	}
	return strconv.FormatInt(hexID.Int(), 10), nil
}

// SwitchChain asks the provider to switch the wallet's active chain. The
// provider may prompt the user; the call blocks until it answers.
func (h *handle) SwitchChain(ctx context.Context, chainID string) error {
	id, err := strconv.ParseUint(chainID, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed chain id %q: %w", chainID, err)
	}

	_, err = h.conn.Fetch(ctx, "wallet_switchEthereumChain", map[string]any{
		"chainId": "0x" + strconv.FormatUint(id, 16),
	})
	if err != nil {
		return fmt.Errorf("switching to chain %s: %w", chainID, err)
	}
	return nil
}

func (h *handle) Transport(chainID string) wallet.Transport {
	return &transport{
		conn:    h.conn,
		signer:  h.address,
		chainID: chainID,
	}
}

// transport is a chain-bound view of the provider connection.
type transport struct {
	conn    jsonrpc.Client
	signer  string
	chainID string
}

var _ wallet.Transport = (*transport)(nil)

func (t *transport) ChainID() string {
	return t.chainID
}

func (t *transport) SignerAddress() string {
	return t.signer
}

func (t *transport) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return t.conn.Fetch(ctx, method, params...)
}
