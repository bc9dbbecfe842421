// Package redisprefs implements the preference store on Redis.
package redisprefs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-portal-session/prefs"
)

// Preferences are advisory, so entries expire rather than accumulate forever.
const defaultTTL = 90 * 24 * time.Hour

var _ prefs.Store = (*Store)(nil)

// Store is a Redis-backed preference store. Keys are namespaced per tenant so
// preferences never leak across tenant boundaries.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the preference entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Redis preference store.
func New(client *redis.Client, options ...Option) *Store {
	s := &Store{
		client: client,
		ttl:    defaultTTL,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func storefrontKey(tenantID string) string {
	return fmt.Sprintf("prefs:%s:last_storefront", tenantID)
}

func favoritesKey(tenantID string) string {
	return fmt.Sprintf("prefs:%s:favorites", tenantID)
}

// LastStorefront returns the recorded storefront, empty when absent.
func (s *Store) LastStorefront(ctx context.Context, tenantID string) (string, error) {
	val, err := s.client.Get(ctx, storefrontKey(tenantID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last storefront for tenant %s: %w", tenantID, err)
	}
	return val, nil
}

// SetLastStorefront records the storefront selection.
func (s *Store) SetLastStorefront(ctx context.Context, tenantID, storefrontID string) error {
	if err := s.client.Set(ctx, storefrontKey(tenantID), storefrontID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store last storefront for tenant %s: %w", tenantID, err)
	}
	return nil
}

// Favorites returns the favorites list, empty when absent.
func (s *Store) Favorites(ctx context.Context, tenantID string) ([]string, error) {
	val, err := s.client.Get(ctx, favoritesKey(tenantID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites for tenant %s: %w", tenantID, err)
	}

	var favorites []string
	if err := json.Unmarshal([]byte(val), &favorites); err != nil {
		// A corrupt advisory entry is dropped, not surfaced.
		s.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("discarding corrupt favorites entry")
		return nil, nil
	}
	return favorites, nil
}

// SetFavorites replaces the favorites list.
func (s *Store) SetFavorites(ctx context.Context, tenantID string, favorites []string) error {
	data, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	if err := s.client.Set(ctx, favoritesKey(tenantID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store favorites for tenant %s: %w", tenantID, err)
	}
	return nil
}
