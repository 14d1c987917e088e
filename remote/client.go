// Package remote talks to the hosted backend: auto-generated REST access to
// tables under /rest/v1 and the auth endpoints under /auth/v1.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/glamflow/offline-sync/types"
)

// StatusError is returned when the backend answers with a non-2xx status.
// Transport-level failures are returned unwrapped so callers can tell a
// rejected request from an unreachable backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: status %d: %s", e.StatusCode, e.Body)
}

// Client issues table mutations and auth calls against the backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL. httpClient may be
// nil, in which case http.DefaultClient is used; pass a client wrapped with
// the strategy router to get offline read fallbacks on GET traffic.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Insert creates a record in table.
func (c *Client) Insert(ctx context.Context, table string, fields map[string]any) error {
	return c.do(ctx, http.MethodPost, "/rest/v1/"+table, fields)
}

// UpdateByID patches the record with the given id in table.
func (c *Client) UpdateByID(ctx context.Context, table, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/rest/v1/"+table+"?id=eq."+url.QueryEscape(id), fields)
}

// DeleteByID deletes the record with the given id from table.
func (c *Client) DeleteByID(ctx context.Context, table, id string) error {
	return c.do(ctx, http.MethodDelete, "/rest/v1/"+table+"?id=eq."+url.QueryEscape(id), nil)
}

// CurrentSession asks the auth service who is logged in. A nil session with
// a nil error means the service answered "nobody".
func (c *Client) CurrentSession(ctx context.Context) (*types.Session, *types.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return nil, nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, statusError(resp)
	}

	var payload struct {
		Session *types.Session `json:"session"`
		User    *types.User    `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("remote: decode session: %w", err)
	}
	return payload.Session, payload.User, nil
}

// SignOut invalidates the current session on the auth service.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body map[string]any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
}
