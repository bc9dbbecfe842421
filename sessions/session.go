// Package sessions owns the authenticated-session model and the BFF session
// endpoints: cookie-based session check, proactive refresh, CSRF token fetch,
// and logout. The auth coordinator is the only writer of session state; every
// other component treats the Session as read-only.
package sessions

import (
	"time"
)

// Session describes the authenticated visitor as reported by the BFF.
// Created on login or a successful cookie-based session check, mutated only
// by refresh (new ExpiresAt/CSRFToken), destroyed on logout or terminal
// refresh failure.
type Session struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	TenantID    string   `json:"tenant_id,omitempty"`   // Tenant the session was established against
	TenantSlug  string   `json:"tenant_slug,omitempty"` // Slug form of the same tenant
	VendorID    string   `json:"vendor_id,omitempty"`   // Explicit vendor scope for staff accounts
	ExpiresAt   int64    `json:"expires_at"`            // Epoch seconds
	CSRFToken   string   `json:"-"`
}

// ExpiryTime returns ExpiresAt as a time.Time.
func (s *Session) ExpiryTime() time.Time {
	return time.Unix(s.ExpiresAt, 0)
}

// RemainingLife reports how much session lifetime is left at now.
func (s *Session) RemainingLife(now time.Time) time.Duration {
	return s.ExpiryTime().Sub(now)
}

// CheckResult is the outcome of a session check. Err carries the BFF-supplied
// reason when Authenticated is false; a rate-limited check is flagged
// separately so callers never treat it as invalid credentials.
type CheckResult struct {
	Authenticated bool
	Session       *Session
	RateLimited   bool
	Err           string
}
