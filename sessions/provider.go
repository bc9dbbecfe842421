package sessions

import "context"

// Provider is the identity source consumed by the auth coordinator. The real
// implementation is Client (BFF-backed); devsession.Provider is the
// configuration-selected development strategy. Choosing one happens once at
// startup so production code paths are never altered by a stray flag check.
type Provider interface {
	// Check performs a cookie-based session check.
	Check(ctx context.Context) (*CheckResult, error)

	// Refresh extends the session. It reports success; the caller re-checks
	// the session on success to pick up the new expiry and CSRF token.
	Refresh(ctx context.Context) (bool, error)

	// FetchCSRFToken retrieves a fresh CSRF token.
	FetchCSRFToken(ctx context.Context) (string, error)

	// Logout ends the session and returns the server-provided redirect URL.
	Logout(ctx context.Context) (string, error)

	// LoginURL builds the interactive login URL carrying the given state.
	LoginURL(state string) string

	// LogoutURL builds the interactive logout URL.
	LogoutURL() string
}
