package permissions

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-portal-session/apiclient"
)

const effectivePermissionsPath = "/api/permissions/effective"

// Resolver fetches effective permissions for the current user and tenant.
// Fetch failures degrade to the empty permission set: a missing staff record
// is a valid state (a newly onboarded tenant owner has none yet).
type Resolver struct {
	api    *apiclient.Client
	logger zerolog.Logger

	mu       sync.RWMutex
	current  *EffectivePermissions
	tenantID string // key of the last committed fetch
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a permission resolver over the shared API client.
func NewResolver(api *apiclient.Client, options ...ResolverOption) (*Resolver, error) {
	if api == nil {
		return nil, fmt.Errorf("[permissions.NewResolver] api client is required")
	}

	r := &Resolver{
		api:     api,
		current: Empty(),
		logger:  zerolog.Nop(),
	}

	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Load fetches the effective-permissions document for the given tenant.
// Errors are swallowed into the empty set; a stale response (tenant changed
// while the fetch was in flight) is discarded rather than committed.
func (r *Resolver) Load(ctx context.Context, tenantID string) {
	r.mu.Lock()
	r.tenantID = tenantID
	r.mu.Unlock()

	var doc EffectivePermissions
	err := r.api.Get(ctx, effectivePermissionsPath, &doc)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tenantID != tenantID {
		// A newer load superseded this one.
		return
	}
	if err != nil {
		r.logger.Debug().Err(err).Str("tenant_id", tenantID).Msg("permission fetch failed, treating as empty")
		r.current = Empty()
	} else {
		r.current = &doc
	}
}

// Current returns the committed permission document.
func (r *Resolver) Current() *EffectivePermissions {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// HasPermission reports whether the named capability is granted. Owner-level
// users (priority >= OwnerPriorityLevel) pass every check.
func (r *Resolver) HasPermission(permission string) bool {
	return r.Current().Has(permission)
}

// HasAnyPermission reports whether any of the named capabilities is granted.
func (r *Resolver) HasAnyPermission(permissions ...string) bool {
	current := r.Current()
	if current.IsOwner() {
		return true
	}
	for _, p := range permissions {
		if current.Has(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every named capability is granted.
func (r *Resolver) HasAllPermissions(permissions ...string) bool {
	current := r.Current()
	if current.IsOwner() {
		return true
	}
	for _, p := range permissions {
		if !current.Has(p) {
			return false
		}
	}
	return true
}
