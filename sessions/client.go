package sessions

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/internal/errors"
)

// Endpoints holds the BFF session endpoint paths.
type Endpoints struct {
	Session string // GET  -> checkResponse
	Refresh string // POST -> refreshResponse (CSRF header required)
	CSRF    string // GET  -> csrfResponse
	Login   string // interactive login (full navigation target)
	Logout  string // POST -> logoutResponse with redirect
}

// DefaultEndpoints are the conventional BFF paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Session: "/api/auth/session",
		Refresh: "/api/auth/refresh",
		CSRF:    "/api/auth/csrf",
		Login:   "/api/auth/login",
		Logout:  "/api/auth/logout",
	}
}

// Client talks to the BFF session endpoints. It implements Provider.
type Client struct {
	api       *apiclient.Client
	endpoints Endpoints
	oauth     oauth2.Config
	logger    zerolog.Logger
}

var _ Provider = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the session client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a session client over the shared BFF API client.
// oauthClientID identifies this portal to the BFF-hosted login flow.
func NewClient(api *apiclient.Client, endpoints Endpoints, oauthClientID string, options ...ClientOption) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("[sessions.NewClient] api client is required")
	}

	c := &Client{
		api:       api,
		endpoints: endpoints,
		oauth: oauth2.Config{
			ClientID: oauthClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL: api.BaseURL() + endpoints.Login,
			},
		},
		logger: zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

type checkResponse struct {
	Authenticated bool     `json:"authenticated"`
	User          *Session `json:"user,omitempty"`
	ExpiresAt     int64    `json:"expires_at,omitempty"`
	CSRFToken     string   `json:"csrf_token,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type refreshResponse struct {
	Refreshed bool   `json:"refreshed"`
	Error     string `json:"error,omitempty"`
}

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

type logoutResponse struct {
	Redirect string `json:"redirect"`
}

// Check performs the cookie-based session check. Transport failures and 401s
// are converted into an unauthenticated result, never surfaced as errors; a
// 429 is flagged distinctly so callers never read it as invalid credentials.
func (c *Client) Check(ctx context.Context) (*CheckResult, error) {
	var resp checkResponse
	if err := c.api.Get(ctx, c.endpoints.Session, &resp); err != nil {
		switch {
		case errors.Is(err, errors.ErrRateLimited):
			c.logger.Warn().Msg("session check rate limited")
			return &CheckResult{RateLimited: true, Err: "rate limited"}, nil
		case errors.Is(err, errors.ErrUnauthenticated):
			return &CheckResult{Err: "not authenticated"}, nil
		default:
			c.logger.Warn().Err(err).Msg("session check failed")
			return &CheckResult{Err: "fetch failed"}, nil
		}
	}

	if !resp.Authenticated || resp.User == nil {
		return &CheckResult{Err: resp.Error}, nil
	}

	sess := *resp.User
	if resp.ExpiresAt != 0 {
		sess.ExpiresAt = resp.ExpiresAt
	}
	sess.CSRFToken = resp.CSRFToken
	c.api.SetCSRFToken(resp.CSRFToken)

	return &CheckResult{Authenticated: true, Session: &sess}, nil
}

// Refresh extends the session via the refresh endpoint. The CSRF token held
// by the API client is attached automatically (POST).
func (c *Client) Refresh(ctx context.Context) (bool, error) {
	var resp refreshResponse
	if err := c.api.Post(ctx, c.endpoints.Refresh, struct{}{}, &resp); err != nil {
		if errors.Is(err, errors.ErrRateLimited) {
			return false, errors.ErrRateLimited
		}
		return false, errors.Wrapf(err, "session refresh")
	}
	return resp.Refreshed, nil
}

// FetchCSRFToken retrieves a fresh CSRF token and stores it on the API client.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	var resp csrfResponse
	if err := c.api.Get(ctx, c.endpoints.CSRF, &resp); err != nil {
		return "", errors.Wrapf(err, "csrf token fetch")
	}
	c.api.SetCSRFToken(resp.CSRFToken)
	return resp.CSRFToken, nil
}

// Logout performs a fetch-based logout and returns the server-provided
// redirect target for the caller to follow.
func (c *Client) Logout(ctx context.Context) (string, error) {
	var resp logoutResponse
	if err := c.api.Post(ctx, c.endpoints.Logout, struct{}{}, &resp); err != nil {
		return "", errors.Wrapf(err, "logout")
	}
	return resp.Redirect, nil
}

// LoginURL builds the BFF-hosted interactive login URL. State is round-tripped
// by the BFF for CSRF protection on the callback.
func (c *Client) LoginURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// LogoutURL builds the BFF-hosted interactive logout URL.
func (c *Client) LogoutURL() string {
	return c.api.BaseURL() + c.endpoints.Logout
}
