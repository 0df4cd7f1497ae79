package withdraw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spectre-protocol/spectre-shield/types"
)

// HTTPRelayer fetches pending withdrawal requests from a relayer's
// HTTP API.
type HTTPRelayer struct {
	baseURL *url.URL
	client  *http.Client
}

// NewHTTPRelayer creates a relayer client for the given base URL.
func NewHTTPRelayer(baseURL string) (*HTTPRelayer, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relayer URL: %w", err)
	}
	return &HTTPRelayer{
		baseURL: u,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// FetchPending retrieves the withdrawal requests currently pending on
// chain.
func (r *HTTPRelayer) FetchPending(ctx context.Context) ([]*types.PendingWithdrawal, error) {
	endpoint := r.baseURL.JoinPath("withdrawals", "pending")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create relayer request: %w", err)
	}
	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relayer request failed: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("relayer returned status %d: %s", res.StatusCode, body)
	}
	var pending []*types.PendingWithdrawal
	if err := json.NewDecoder(res.Body).Decode(&pending); err != nil {
		return nil, fmt.Errorf("cannot decode relayer response: %w", err)
	}
	return pending, nil
}
