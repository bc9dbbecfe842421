// Package apiclient provides the shared HTTP client used for every BFF call.
// Tenant, user, and vendor identity headers live on the client itself so that
// a single synchronization point (the bridge) controls what every descendant
// request carries.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-portal-session/internal/errors"
)

// Identity header names understood by the BFF.
const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderVendorID  = "X-Vendor-ID"
	HeaderCSRFToken = "X-CSRF-Token"
	HeaderRequestID = "X-Request-ID"
)

// Client issues JSON requests against the BFF with the current identity
// headers attached. Header state is mutable and mutex-guarded; only the
// bridge is expected to write it (see the bridge package).
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	mu        sync.RWMutex
	tenantID  string
	userID    string
	userEmail string
	vendorID  string
	csrfToken string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client (primarily for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a BFF client for the given base URL. The client carries a
// cookie jar because the BFF session itself is cookie-based.
func New(baseURL string, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("[apiclient.New] baseURL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("[apiclient.New] invalid baseURL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("[apiclient.New] cookie jar: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured BFF base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTenantID sets the tenant header applied to subsequent requests.
func (c *Client) SetTenantID(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenantID = tenantID
}

// SetUserInfo sets the user headers applied to subsequent requests.
func (c *Client) SetUserInfo(userID, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.userEmail = email
}

// SetVendorID sets the vendor header applied to subsequent requests.
func (c *Client) SetVendorID(vendorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vendorID = vendorID
}

// SetCSRFToken sets the CSRF token sent with mutating requests.
func (c *Client) SetCSRFToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrfToken = token
}

// TenantID returns the currently applied tenant header value.
func (c *Client) TenantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tenantID
}

// UserID returns the currently applied user header value.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// VendorID returns the currently applied vendor header value.
func (c *Client) VendorID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vendorID
}

// CSRFToken returns the currently held CSRF token.
func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrfToken
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request and decodes the JSON response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyIdentityHeaders(req, method)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("bff request")

	if err := statusError(resp.StatusCode); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s returned %d: %w", method, path, resp.StatusCode, err)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// applyIdentityHeaders stamps the current identity snapshot onto a request.
// CSRF is only attached to mutating methods, matching what the BFF validates.
func (c *Client) applyIdentityHeaders(req *http.Request, method string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tenantID != "" {
		req.Header.Set(HeaderTenantID, c.tenantID)
	}
	if c.userID != "" {
		req.Header.Set(HeaderUserID, c.userID)
	}
	if c.userEmail != "" {
		req.Header.Set(HeaderUserEmail, c.userEmail)
	}
	if c.vendorID != "" {
		req.Header.Set(HeaderVendorID, c.vendorID)
	}
	if c.csrfToken != "" && method != http.MethodGet {
		req.Header.Set(HeaderCSRFToken, c.csrfToken)
	}
}

// statusError maps HTTP status codes onto the SDK error taxonomy.
func statusError(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return errors.ErrUnauthenticated
	case status == http.StatusNotFound:
		return errors.ErrNotFound
	case status == http.StatusTooManyRequests:
		return errors.ErrRateLimited
	case status == http.StatusForbidden:
		return errors.ErrTenantAccessDenied
	default:
		return errors.Wrapf(errors.ErrInternal, "unexpected status %d", status)
	}
}
