// Package tenants resolves which tenant's data the portal operates on.
// Tenant selection is driven by the request hostname (subdomain convention)
// and is immutable for the lifetime of a resolver; switching tenants is a
// hard navigation to the target tenant's canonical host because cookies and
// headers are host-scoped.
package tenants

// Tenant represents a storefront organization the user belongs to.
type Tenant struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Role         string `json:"role"`       // The user's role within this tenant
	IsDefault    bool   `json:"is_default"` // Flagged default for root-domain visits
	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
	CustomDomain string `json:"custom_domain,omitempty"` // Custom admin domain, if configured
	AdminURL     string `json:"admin_url,omitempty"`     // Canonical admin URL on the custom domain
}

// UserTenants is the BFF response for the user's tenant list.
type UserTenants struct {
	Tenants         []Tenant `json:"tenants"`
	IsPlatformAdmin bool     `json:"is_platform_admin"`
}
