package jsonrpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_Err(t *testing.T) {
	t.Run("returns nil when Error field is nil", func(t *testing.T) {
		resp := response{
			JsonRPC: "2.0",
			Error:   nil,
			Result:  nil,
		}

		err := resp.Err()
		assert.NoError(t, err, "Err() should return nil when Error field is nil")
	})

	t.Run("returns formatted error when Error field is present", func(t *testing.T) {
		expectedCode := -32601
		expectedMsg := "method not found"

		resp := response{
			JsonRPC: "2.0",
			Error: &struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}{
				Code:    expectedCode,
				Message: expectedMsg,
			},
		}

		err := resp.Err()

		assert.Error(t, err, "Err() should return an error when Error field is present")
		assert.ErrorIs(t, err, ErrProviderReturnedError, "Err() should wrap ErrProviderReturnedError")
		assert.Contains(t, err.Error(), fmt.Sprintf("[%d]", expectedCode), "error message should include code")
		assert.Contains(t, err.Error(), expectedMsg, "error message should include message")
	})
}

func TestClient_Fetch(t *testing.T) {
	t.Run("successful response with result", func(t *testing.T) {
		expected := map[string]any{"hello": "world"}
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"result":  expected,
				"id":      "1",
			})
		}))
		defer mockServer.Close()

		c := NewClient(mockServer.Client(), mockServer.URL)

		result, err := c.Fetch(t.Context(), "dummy_method")
		assert.NoError(t, err)

		var actual map[string]any
		err = json.Unmarshal(result, &actual)
		assert.NoError(t, err)
		assert.Equal(t, expected, actual)
	})

	t.Run("request body carries method and params", func(t *testing.T) {
		var captured struct {
			JsonRPC string `json:"jsonrpc"`
			ID      string `json:"id"`
			Method  string `json:"method"`
			Params  []any  `json:"params"`
		}
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"result":  "0x1",
				"id":      captured.ID,
			})
		}))
		defer mockServer.Close()

		c := NewClient(mockServer.Client(), mockServer.URL)

		_, err := c.Fetch(t.Context(), "eth_call", map[string]any{"to": "0xabc"}, "latest")
		require.NoError(t, err)

		assert.Equal(t, "2.0", captured.JsonRPC)
		assert.NotEmpty(t, captured.ID)
		assert.Equal(t, "eth_call", captured.Method)
		assert.Len(t, captured.Params, 2)
	})

	t.Run("response with JSON-RPC error", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"error": map[string]any{
					"code":    -32601,
					"message": "method not found",
				},
				"id": "1",
			})
		}))
		defer mockServer.Close()

		c := NewClient(mockServer.Client(), mockServer.URL)

		result, err := c.Fetch(t.Context(), "nonexistent_method")
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "method not found")
	})

	t.Run("malformed JSON response", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("this is not json"))
		}))
		defer mockServer.Close()

		c := NewClient(mockServer.Client(), mockServer.URL)

		result, err := c.Fetch(t.Context(), "bad_json")
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "invalid character")
	})

	t.Run("network error when server is down", func(t *testing.T) {
		mockServer := httptest.NewServer(nil)
		mockServer.Close() // Immediately close

		c := NewClient(http.DefaultClient, mockServer.URL)

		result, err := c.Fetch(t.Context(), "network_failure")
		assert.Error(t, err)
		assert.Nil(t, result)
	})
}

func TestNewClient(t *testing.T) {
	c := NewClient(http.DefaultClient, "http://localhost:8080")

	require.NotNil(t, c)
	assert.Equal(t, "http://localhost:8080", c.providerEndpoint)
	assert.Same(t, http.DefaultClient, c.httpClient)
}
