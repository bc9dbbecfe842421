// Package devsession is the development identity provider: a strategy object
// selected once at startup instead of scattering dev-mode conditionals
// through production code paths. It authenticates a fixed set of users with
// bcrypt-hashed passwords and mints its own short-lived JWT session tokens,
// so the coordinator and everything above it run exactly as they do against
// the real BFF.
package devsession

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	interrors "github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/sessions"
)

const defaultSessionTTL = 30 * time.Minute

// User is a static development user.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Roles        []string
	TenantID     string
	TenantSlug   string
	VendorID     string
	PasswordHash string // bcrypt
}

// sessionClaims are the claims carried by a minted development session token.
type sessionClaims struct {
	UserID      string   `json:"uid"`
	Email       string   `json:"email"`
	DisplayName string   `json:"name"`
	Roles       []string `json:"roles"`
	TenantID    string   `json:"tenant_id,omitempty"`
	TenantSlug  string   `json:"tenant_slug,omitempty"`
	VendorID    string   `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}

// Provider implements sessions.Provider against in-memory state.
type Provider struct {
	users      map[string]User // keyed by email
	signingKey []byte
	sessionTTL time.Duration
	nowTime    func() time.Time

	mu       sync.Mutex
	token    string // current minted session token, empty when logged out
	csrf     string
	failures int // forced Refresh failures remaining (test hook)
}

var _ sessions.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(p *Provider) {
		p.nowTime = nowFunc
	}
}

// WithSessionTTL overrides the minted session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		p.sessionTTL = ttl
	}
}

// New creates a development provider with the given users.
func New(users []User, signingKey []byte, options ...Option) (*Provider, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("[devsession.New] signing key is required")
	}

	byEmail := make(map[string]User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}

	p := &Provider{
		users:      byEmail,
		signingKey: signingKey,
		sessionTTL: defaultSessionTTL,
		nowTime:    time.Now,
	}

	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// HashPassword produces a bcrypt hash for seeding dev users.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// Login authenticates a dev user and establishes an in-memory session.
func (p *Provider) Login(email, password string) error {
	u, ok := p.users[email]
	if !ok {
		return fmt.Errorf("unknown dev user %q", email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("invalid dev credentials")
	}

	token, err := p.mint(u)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	p.csrf = randomToken()
	return nil
}

// Check parses the current minted token back into a session.
func (p *Provider) Check(ctx context.Context) (*sessions.CheckResult, error) {
	p.mu.Lock()
	token, csrf := p.token, p.csrf
	p.mu.Unlock()

	if token == "" {
		return &sessions.CheckResult{Err: "not authenticated"}, nil
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.nowTime))
	if err != nil || !parsed.Valid {
		return &sessions.CheckResult{Err: "session expired"}, nil
	}

	return &sessions.CheckResult{
		Authenticated: true,
		Session: &sessions.Session{
			UserID:      claims.UserID,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			Roles:       claims.Roles,
			TenantID:    claims.TenantID,
			TenantSlug:  claims.TenantSlug,
			VendorID:    claims.VendorID,
			ExpiresAt:   claims.ExpiresAt.Unix(),
			CSRFToken:   csrf,
		},
	}, nil
}

// Refresh re-mints the current session with a fresh expiry.
func (p *Provider) Refresh(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.failures > 0 {
		p.failures--
		p.mu.Unlock()
		return false, fmt.Errorf("forced refresh failure")
	}
	token := p.token
	p.mu.Unlock()

	if token == "" {
		return false, interrors.ErrUnauthenticated
	}

	claims := &sessionClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.nowTime)); err != nil {
		// Only a valid token can be re-minted; past expiry the user logs in again.
		return false, interrors.Wrapf(interrors.ErrSessionExpired, "refresh")
	}

	u, ok := p.users[claims.Email]
	if !ok {
		return false, interrors.ErrUnauthenticated
	}

	fresh, err := p.mint(u)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	p.token = fresh
	p.csrf = randomToken()
	p.mu.Unlock()
	return true, nil
}

// FetchCSRFToken returns the current CSRF token, minting one if needed.
func (p *Provider) FetchCSRFToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.csrf == "" {
		p.csrf = randomToken()
	}
	return p.csrf, nil
}

// Logout drops the in-memory session.
func (p *Provider) Logout(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.csrf = ""
	return "/", nil
}

// LoginURL points at nothing real in dev mode.
func (p *Provider) LoginURL(state string) string {
	return "/dev/login?state=" + state
}

// LogoutURL points at nothing real in dev mode.
func (p *Provider) LogoutURL() string {
	return "/dev/logout"
}

// FailNextRefreshes forces the next n Refresh calls to fail. Used to exercise
// the coordinator's backoff and terminal-failure handling end to end.
func (p *Provider) FailNextRefreshes(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = n
}

func (p *Provider) mint(u User) (string, error) {
	now := p.nowTime()
	claims := sessionClaims{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
		TenantID:    u.TenantID,
		TenantSlug:  u.TenantSlug,
		VendorID:    u.VendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign dev session token: %w", err)
	}
	return signed, nil
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
