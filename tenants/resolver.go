package tenants

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/internal/errors"
)

// BFF endpoint paths for tenant operations.
const (
	userTenantsPath = "/api/tenants/user-tenants"
	setDefaultPath  = "/api/tenants/set-default"
)

// Resolver fetches the user's tenant list and derives the active tenant from
// the hostname. A hostname slug with no matching tenant is an exposed access
// error, never a silent fallback to another tenant.
type Resolver struct {
	api        *apiclient.Client
	baseDomain string
	logger     zerolog.Logger

	mu              sync.RWMutex
	tenants         []Tenant
	isPlatformAdmin bool
	active          *Tenant
	accessErr       error
	loaded          bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a tenant resolver. baseDomain is the standard admin
// domain whose subdomains carry tenant slugs (e.g. "myshopadmin.com" for
// "acme.myshopadmin.com").
func NewResolver(api *apiclient.Client, baseDomain string, options ...ResolverOption) (*Resolver, error) {
	if api == nil {
		return nil, fmt.Errorf("[tenants.NewResolver] api client is required")
	}
	if baseDomain == "" {
		return nil, fmt.Errorf("[tenants.NewResolver] baseDomain is required")
	}

	r := &Resolver{
		api:        api,
		baseDomain: baseDomain,
		logger:     zerolog.Nop(),
	}

	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Load fetches the user's tenant list. A 401 is treated as "no tenants", not
// an error; the bridge decides what an unauthenticated visitor sees.
func (r *Resolver) Load(ctx context.Context) error {
	var resp UserTenants
	if err := r.api.Get(ctx, userTenantsPath, &resp); err != nil {
		if errors.Is(err, errors.ErrUnauthenticated) {
			r.mu.Lock()
			r.tenants = nil
			r.isPlatformAdmin = false
			r.loaded = true
			r.mu.Unlock()
			return nil
		}
		return errors.Wrapf(err, "tenant list fetch")
	}

	r.mu.Lock()
	r.tenants = resp.Tenants
	r.isPlatformAdmin = resp.IsPlatformAdmin
	r.loaded = true
	r.mu.Unlock()

	r.logger.Debug().Int("tenants", len(resp.Tenants)).Msg("tenant list loaded")
	return nil
}

// Resolve determines the active tenant for the given hostname. A subdomain
// slug must match a granted tenant; the root domain selects the flagged
// default, or the first tenant when none is flagged.
func (r *Resolver) Resolve(hostname string) (*Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return nil, fmt.Errorf("tenant list not loaded")
	}

	slug := SlugFromHost(hostname, r.baseDomain)

	if slug != "" {
		for i := range r.tenants {
			if r.tenants[i].Slug == slug {
				r.active = &r.tenants[i]
				r.accessErr = nil
				return r.active, nil
			}
		}
		r.active = nil
		r.accessErr = errors.Wrapf(errors.ErrTenantAccessDenied, "no grant for tenant %q", slug)
		r.logger.Warn().Str("slug", slug).Msg("hostname tenant not in user's grants")
		return nil, r.accessErr
	}

	if len(r.tenants) == 0 {
		r.active = nil
		r.accessErr = errors.ErrNoTenants
		return nil, r.accessErr
	}

	for i := range r.tenants {
		if r.tenants[i].IsDefault {
			r.active = &r.tenants[i]
			r.accessErr = nil
			return r.active, nil
		}
	}
	r.active = &r.tenants[0]
	r.accessErr = nil
	return r.active, nil
}

// Active returns the resolved tenant, or nil with the access error when
// resolution failed.
func (r *Resolver) Active() (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, r.accessErr
}

// Tenants returns the loaded tenant list.
func (r *Resolver) Tenants() []Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tenant, len(r.tenants))
	copy(out, r.tenants)
	return out
}

// IsPlatformAdmin reports whether the user administers the whole platform.
func (r *Resolver) IsPlatformAdmin() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isPlatformAdmin
}

// SwitchURL builds the full-navigation URL for switching to another tenant,
// preserving the current path. Switching is a hard navigation because it
// crosses a security boundary: cookies and headers are host-scoped.
func (r *Resolver) SwitchURL(slug, currentPath string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var target *Tenant
	for i := range r.tenants {
		if r.tenants[i].Slug == slug {
			target = &r.tenants[i]
			break
		}
	}
	if target == nil {
		return "", errors.Wrapf(errors.ErrTenantNotFound, "switch to %q", slug)
	}

	if currentPath == "" {
		currentPath = "/"
	}
	if !strings.HasPrefix(currentPath, "/") {
		currentPath = "/" + currentPath
	}

	if target.AdminURL != "" {
		return strings.TrimRight(target.AdminURL, "/") + currentPath, nil
	}
	if target.CustomDomain != "" {
		u := url.URL{Scheme: "https", Host: target.CustomDomain, Path: currentPath}
		return u.String(), nil
	}
	u := url.URL{Scheme: "https", Host: target.Slug + "." + r.baseDomain, Path: currentPath}
	return u.String(), nil
}

// SetDefault persists a new default tenant and optimistically updates the
// local flags.
func (r *Resolver) SetDefault(ctx context.Context, tenantID string) error {
	body := struct {
		TenantID string `json:"tenant_id"`
	}{TenantID: tenantID}

	if err := r.api.Put(ctx, setDefaultPath, body, nil); err != nil {
		return errors.Wrapf(err, "set default tenant")
	}

	r.mu.Lock()
	for i := range r.tenants {
		r.tenants[i].IsDefault = r.tenants[i].ID == tenantID
	}
	r.mu.Unlock()
	return nil
}

// SlugFromHost derives the tenant slug from a hostname under baseDomain.
// The root domain and its "www"/"admin" aliases carry no slug; hosts outside
// baseDomain (custom domains) are resolved by the BFF, not by slug.
func SlugFromHost(hostname, baseDomain string) string {
	host := strings.ToLower(strings.TrimSuffix(hostname, "."))
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}

	if host == baseDomain {
		return ""
	}
	suffix := "." + baseDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	sub := strings.TrimSuffix(host, suffix)
	if sub == "www" || sub == "admin" || strings.Contains(sub, ".") {
		return ""
	}
	return sub
}
