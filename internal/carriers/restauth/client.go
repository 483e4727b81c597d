// Package restauth provides an OAuth2 client-credentials HTTP client for the
// REST carrier integrations. The bearer token is fetched lazily on first use
// and cached for the client's lifetime; the carriers issue short campaigns of
// calls, so expiry tracking has never been needed in practice.
package restauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Config configures a REST auth client for one carrier.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// Timeout bounds each call. Defaults to 15s when zero.
	Timeout time.Duration
}

// StatusError is a non-2xx response from the carrier, carrying the carrier's
// own message when one was supplied.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Client is an authenticated HTTP client for one carrier's REST API.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client

	group singleflight.Group
	mu    sync.Mutex
	token string
}

// NewClient creates a REST auth client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientID:   cfg.ClientID,
		secret:     cfg.ClientSecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured carrier base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the cached bearer token, performing the client_credentials
// exchange on first use. Concurrent cold-cache callers share a single
// upstream token request.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.token
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	value, err, _ := c.group.Do("token", func() (interface{}, error) {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}

	token := value.(string)
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.secret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		AccessToken      string `json:"access_token"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices || payload.AccessToken == "" {
		message := payload.ErrorDescription
		if message == "" {
			message = "token retrieval failed"
		}
		return "", &StatusError{Status: resp.StatusCode, Message: message}
	}

	return payload.AccessToken, nil
}

// GetJSON performs an authenticated GET against an absolute URL and decodes
// the JSON response. Empty params are skipped.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params map[string]string) (map[string]any, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if len(params) > 0 {
		query := target.Query()
		for key, value := range params {
			if value != "" {
				query.Set(key, value)
			}
		}
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return c.doJSON(req)
}

// PostJSON performs an authenticated JSON POST against an absolute URL and
// decodes the JSON response.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any) (map[string]any, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return c.doJSON(req)
}

func (c *Client) doJSON(req *http.Request) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var data map[string]any
	if len(raw) > 0 {
		// Tolerate empty or non-JSON error bodies; the status check below
		// still surfaces the failure.
		_ = json.Unmarshal(raw, &data)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message, _ := data["message"].(string)
		return nil, &StatusError{Status: resp.StatusCode, Message: message}
	}

	if data == nil {
		if len(raw) == 0 {
			return map[string]any{}, nil
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return data, nil
}
