// Package prefs is the durable client-side preference store: per-tenant
// "last selected" sub-entities (the storefront picker) and a favorites cache.
// Everything here is advisory; callers always re-validate against fetched
// server data before acting on it.
package prefs

import "context"

// Store persists per-tenant UI preferences.
type Store interface {
	// LastStorefront returns the last selected storefront for a tenant,
	// empty when none was recorded.
	LastStorefront(ctx context.Context, tenantID string) (string, error)

	// SetLastStorefront records the last selected storefront for a tenant.
	SetLastStorefront(ctx context.Context, tenantID, storefrontID string) error

	// Favorites returns the user's favorite navigation entries for a tenant.
	Favorites(ctx context.Context, tenantID string) ([]string, error)

	// SetFavorites replaces the favorites list for a tenant.
	SetFavorites(ctx context.Context, tenantID string, favorites []string) error
}
