package status

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Client fetches status reports from game servers over the JSON-RPC
// endpoint. Safe for concurrent use.
type Client struct {
	http   *http.Client
	nextID uint64
}

func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Fetch queries the status method of the server at baseURL.
func (c *Client) Fetch(ctx context.Context, baseURL string) (*Status, error) {
	var status Status
	if err := c.call(ctx, baseURL, "status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// FetchVersion queries the version method of the server at baseURL.
func (c *Client) FetchVersion(ctx context.Context, baseURL string) (string, error) {
	var version string
	if err := c.call(ctx, baseURL, "version", &version); err != nil {
		return "", err
	}
	return version, nil
}

func (c *Client) call(ctx context.Context, baseURL, method string, result interface{}) error {
	id := atomic.AddUint64(&c.nextID, 1)
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      id,
	})
	if err != nil {
		return fmt.Errorf("error encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s on %s: %w", method, baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %d from %s", resp.StatusCode, baseURL)
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("error decoding %s response from %s: %w", method, baseURL, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error from %s: %s (%d)", baseURL, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("error decoding %s result from %s: %w", method, baseURL, err)
	}
	return nil
}
