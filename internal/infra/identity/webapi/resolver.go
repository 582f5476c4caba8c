// Package webapi implements the identity.Resolver boundary against the
// backend identity-resolution service over HTTP+JSON.
package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nocturnelabs/vaultdesk/internal/identity"
)

// resolveRequest is the wire shape of one batched resolution call.
type resolveRequest struct {
	Addresses []string `json:"addresses"`
}

// resolveResponse carries the service's address-to-identity mapping.
type resolveResponse struct {
	Mapping map[string]string `json:"mapping"`
}

// Client resolves owner identities through the backend service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ identity.Resolver = (*Client)(nil)

// NewClient creates a resolver client for the given service endpoint.
func NewClient(httpClient *http.Client, endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

func (c *Client) Resolve(ctx context.Context, addresses []string) (map[string]string, error) {
	body, err := json.Marshal(resolveRequest{Addresses: addresses})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity service answered %s", res.Status)
	}

	var data resolveResponse
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	return data.Mapping, nil
}
