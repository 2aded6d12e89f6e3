package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "KYKLOS_HTTP_TIMEOUT"
	adminTokenEnvKey   = "KYKLOS_ADMIN_TOKEN"
)

// Client is a simple HTTP client for the kyklos API, used by the CLI.
type Client struct {
	baseURL    string
	http       *http.Client
	adminToken string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: httpTimeoutFromEnv()},
		adminToken: strings.TrimSpace(os.Getenv(adminTokenEnvKey)),
	}
}

// Ping checks server liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, false)
}

// Info fetches server and store metadata.
func (c *Client) Info(ctx context.Context) (*InfoResponse, error) {
	var resp InfoResponse
	if err := c.do(ctx, http.MethodGet, "/v1/info", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminUserAdd provisions one user.
func (c *Client) AdminUserAdd(ctx context.Context, req AdminUserCreateRequest) (*AdminUserResponse, error) {
	var resp AdminUserResponse
	if err := c.do(ctx, http.MethodPost, "/v1/admin/users", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminUserList lists provisioned users.
func (c *Client) AdminUserList(ctx context.Context) ([]AdminUserResponse, error) {
	var resp AdminUserListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/admin/users", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// AdminUserSetDisabled enables or disables one user.
func (c *Client) AdminUserSetDisabled(ctx context.Context, username string, disabled bool) (*AdminUserResponse, error) {
	var resp AdminUserResponse
	req := AdminUserUpdateRequest{Disabled: &disabled}
	if err := c.do(ctx, http.MethodPatch, "/v1/admin/users/"+username, req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminUserDelete deletes one user.
func (c *Client) AdminUserDelete(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/v1/admin/users/"+username, nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any, admin bool) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin && c.adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var wire ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err == nil {
		apiErr.Code = wire.Code
		apiErr.ErrorCode = wire.ErrorCode
		apiErr.Message = wire.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func httpTimeoutFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if raw == "" {
		return defaultHTTPTimeout
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return defaultHTTPTimeout
	}
	return parsed
}
