package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	syncEndpoint     = "/transactions/sync"
	exchangeEndpoint = "/item/public_token/exchange"
)

// Client is the concrete implementation of FeedService over HTTP.
// It holds the provider credentials and reuses one http.Client across
// page requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// NewClient creates a new provider client for the given environment URL
// and API credentials.
func NewClient(baseURL, clientID, secret string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
	}
}

// SyncPage fetches one page of the delta feed.
func (c *Client) SyncPage(ctx context.Context, accessToken, cursor string) (*SyncResponse, error) {
	body := SyncRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		Cursor:      cursor,
	}

	var resp SyncResponse
	if err := c.post(ctx, syncEndpoint, body, &resp); err != nil {
		return nil, fmt.Errorf("SyncPage: %w", err)
	}

	return &resp, nil
}

// ExchangePublicToken trades a public token for an access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*TokenExchangeResponse, error) {
	body := TokenExchangeRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		PublicToken: publicToken,
	}

	var resp TokenExchangeResponse
	if err := c.post(ctx, exchangeEndpoint, body, &resp); err != nil {
		return nil, fmt.Errorf("ExchangePublicToken: %w", err)
	}
	if resp.ErrorCode != "" {
		return nil, fmt.Errorf("ExchangePublicToken: %w", &UpstreamError{Code: resp.ErrorCode, Message: resp.ErrorMessage})
	}

	return &resp, nil
}

// post sends a JSON body and decodes a JSON response. A non-2xx status is
// a TransportError; a body that fails to decode is fatal because cursor
// and account-list parsing cannot be trusted past that point.
func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// Ensure Client implements the FeedService interface.
var _ FeedService = (*Client)(nil)
