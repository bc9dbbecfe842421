// Package bridge stamps the resolved tenant and user identity onto the shared
// HTTP client before anything above it is allowed to issue a request. This is
// the one ordering invariant of the whole SDK: the client's identity headers
// must reflect the resolved tenant before any dependent fetch runs, so the
// bind happens synchronously inside the bootstrap barrier, never as a
// deferred side effect.
package bridge

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-portal-session/sessions"
	"github.com/jrsteele09/go-portal-session/tenants"
)

// HeaderClient is the writable identity surface of the shared HTTP client.
// The binder is the only component allowed to call these setters.
type HeaderClient interface {
	SetTenantID(tenantID string)
	SetUserInfo(userID, email string)
	SetVendorID(vendorID string)
}

// Status is the terminal disposition of the identity barrier.
type Status int

const (
	// StatusPending: identity still resolving; nothing may issue requests.
	StatusPending Status = iota
	// StatusReady: headers are stamped; dependent fetches may proceed.
	StatusReady
	// StatusUnauthenticated: no session at all; an outer layer redirects to
	// login and nothing below renders.
	StatusUnauthenticated
	// StatusStoreNotFound: authenticated, but the resolved host has no
	// matching tenant grant; show the terminal "store not found" view with
	// sign-out and create-store actions.
	StatusStoreNotFound
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusStoreNotFound:
		return "store_not_found"
	default:
		return "unknown"
	}
}

// Binder synchronizes resolved identity onto the header client. Setter calls
// happen only when the resolved value actually changed, so repeated binds
// with the same identity are free.
type Binder struct {
	client HeaderClient
	logger zerolog.Logger

	mu           sync.Mutex
	status       Status
	lastTenantID string
	lastUserID   string
	lastVendorID string
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the binder logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Binder) {
		b.logger = logger
	}
}

// New creates a binder over the given header client.
func New(client HeaderClient, options ...Option) *Binder {
	b := &Binder{
		client: client,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Bind applies the resolved session and tenant to the header client and
// reports the resulting status. A nil session marks the barrier
// unauthenticated; a nil tenant on an authenticated session is the
// store-not-found terminal state. The vendor header prefers the session's
// explicit vendor ID (staff scoped to one vendor within a tenant) and falls
// back to the tenant ID, which doubles as vendor ID for non-marketplace
// storefronts.
func (b *Binder) Bind(sess *sessions.Session, tenant *tenants.Tenant) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sess == nil {
		b.status = StatusUnauthenticated
		return b.status
	}
	if tenant == nil {
		b.status = StatusStoreNotFound
		return b.status
	}

	// Tenant first: a request carrying the new user against the old tenant
	// would cross the tenant boundary.
	if tenant.ID != b.lastTenantID {
		b.client.SetTenantID(tenant.ID)
		b.lastTenantID = tenant.ID
	}

	if sess.UserID != b.lastUserID {
		b.client.SetUserInfo(sess.UserID, sess.Email)
		b.lastUserID = sess.UserID
	}

	vendorID := sess.VendorID
	if vendorID == "" {
		vendorID = tenant.ID
	}
	if vendorID != b.lastVendorID {
		b.client.SetVendorID(vendorID)
		b.lastVendorID = vendorID
	}

	b.status = StatusReady
	b.logger.Debug().
		Str("tenant_id", tenant.ID).
		Str("user_id", sess.UserID).
		Str("vendor_id", vendorID).
		Msg("identity bound")
	return b.status
}

// Status returns the current barrier status.
func (b *Binder) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Ready reports whether dependent components may issue requests.
func (b *Binder) Ready() bool {
	return b.Status() == StatusReady
}
