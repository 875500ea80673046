package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dmorales/projectboard/internal/credential"
)

// refreshPath is the token-refresh endpoint. Requests to it are never
// themselves refreshed or retried.
const refreshPath = "/api/auth/token/refresh/"

// refreshSlack is how close to expiry the access token may get before
// the client refreshes it ahead of a request instead of waiting for
// the server to reject it.
const refreshSlack = 30 * time.Second

// Client is a JSON HTTP client for the project-management API. It
// attaches the stored bearer token to outgoing requests and recovers
// from an expired access token by refreshing and retrying exactly
// once per request. Concurrent requests that hit a stale token share
// a single refresh call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     credential.Store
	log        *logrus.Entry

	// refresh single-flight state. The first caller to need a refresh
	// creates the flight; later callers wait on its done channel and
	// share its outcome.
	refreshMu sync.Mutex
	inflight  *refreshFlight

	// onSessionExpired is invoked once when a refresh attempt is
	// rejected and the session is unrecoverable.
	onSessionExpired func()
}

// refreshFlight is one in-progress token refresh shared by every
// request that observed a stale token while it was running.
type refreshFlight struct {
	done   chan struct{}
	access string
	err    error
}

// NewClient creates an API client for the service at baseURL, reading
// and updating credentials through the given store.
func NewClient(baseURL string, tokens credential.Store, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		log:    log.WithField("component", "api"),
	}
}

// OnSessionExpired registers the callback invoked when a token
// refresh fails and the stored credentials have been cleared.
func (c *Client) OnSessionExpired(fn func()) {
	c.onSessionExpired = fn
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AccessToken returns the currently stored access token, empty when
// the store holds none.
func (c *Client) AccessToken() string {
	access, _, err := c.tokens.Read()
	if err != nil {
		c.log.WithError(err).Warn("reading access token")
		return ""
	}
	return access
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Patch performs an HTTP PATCH request with a JSON body and
// unmarshals the JSON response.
func (c *Client) Patch(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do builds and executes the request, handling auth and the one-shot
// refresh-and-retry cycle on 401.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	access, _, err := c.tokens.Read()
	if err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}

	// Refresh ahead of the request when the token is about to lapse;
	// a failure here falls through to the normal 401 path.
	if access != "" && expiresWithin(access, refreshSlack) {
		if fresh, refreshErr := c.refreshAccessToken(ctx); refreshErr == nil {
			access = fresh
		}
	}

	status, respBody, err := c.send(ctx, method, path, body, access)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && path != refreshPath {
		access, err = c.refreshAccessToken(ctx)
		if err != nil {
			c.terminateSession()
			return fmt.Errorf("%s %s: %w", method, path, ErrSessionExpired)
		}

		// Retry exactly once with the refreshed token. A second 401
		// is surfaced as-is.
		status, respBody, err = c.send(ctx, method, path, body, access)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return newAPIError(status, method, path, respBody)
	}

	if result == nil || status == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}

// send executes a single HTTP exchange and returns the status code
// and body. Network-level failures are returned as errors; HTTP
// error statuses are not.
func (c *Client) send(ctx context.Context, method, path string, body interface{}, access string) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// refreshAccessToken exchanges the stored refresh token for a new
// access token. Concurrent callers share one in-flight exchange: the
// first caller performs it, the rest wait for its result.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if flight := c.inflight; flight != nil {
		c.refreshMu.Unlock()
		select {
		case <-flight.done:
			return flight.access, flight.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	flight := &refreshFlight{done: make(chan struct{})}
	c.inflight = flight
	c.refreshMu.Unlock()

	flight.access, flight.err = c.doRefresh(ctx)
	close(flight.done)

	c.refreshMu.Lock()
	c.inflight = nil
	c.refreshMu.Unlock()

	return flight.access, flight.err
}

// doRefresh performs the actual refresh exchange and persists the new
// access token on success.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	_, refresh, err := c.tokens.Read()
	if err != nil {
		return "", fmt.Errorf("reading refresh token: %w", err)
	}
	if refresh == "" {
		return "", fmt.Errorf("no refresh token stored")
	}

	payload := map[string]string{"refresh": refresh}
	status, respBody, err := c.send(ctx, http.MethodPost, refreshPath, payload, "")
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", newAPIError(status, http.MethodPost, refreshPath, respBody)
	}

	var result struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshaling refresh response: %w", err)
	}
	if result.Access == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}

	if err := c.tokens.SaveAccess(result.Access); err != nil {
		return "", fmt.Errorf("persisting refreshed token: %w", err)
	}

	c.log.Debug("access token refreshed")
	return result.Access, nil
}

// terminateSession clears stored credentials and notifies the session
// layer that re-authentication is required.
func (c *Client) terminateSession() {
	if err := c.tokens.Clear(); err != nil {
		c.log.WithError(err).Warn("clearing credentials")
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// newAPIError builds an APIError from a non-2xx response, extracting
// the detail message or field errors when the body is a recognizable
// error payload.
func newAPIError(status int, method, path string, body []byte) *APIError {
	apiErr := &APIError{
		Status: status,
		Method: method,
		Path:   path,
		Body:   body,
	}

	var raw map[string]json.RawMessage
	if json.Unmarshal(body, &raw) != nil {
		return apiErr
	}

	for _, key := range []string{"detail", "error", "message"} {
		var detail string
		if msg, ok := raw[key]; ok && json.Unmarshal(msg, &detail) == nil {
			apiErr.Detail = detail
			delete(raw, key)
			break
		}
	}

	// Remaining string-list values are field validation errors.
	for field, msg := range raw {
		var msgs []string
		if json.Unmarshal(msg, &msgs) == nil && len(msgs) > 0 {
			if apiErr.Fields == nil {
				apiErr.Fields = make(map[string][]string)
			}
			apiErr.Fields[field] = msgs
		}
	}
	return apiErr
}
