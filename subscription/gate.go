package subscription

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/internal/errors"
)

const statusPath = "/api/subscription/status"

// Gate fetches subscription status per tenant and derives the write gate.
type Gate struct {
	api    *apiclient.Client
	logger zerolog.Logger

	mu       sync.RWMutex
	status   *Status // nil means no subscription record
	tenantID string  // key of the last committed fetch
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the gate logger.
func WithLogger(logger zerolog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate creates a subscription gate over the shared API client.
func NewGate(api *apiclient.Client, options ...GateOption) (*Gate, error) {
	if api == nil {
		return nil, fmt.Errorf("[subscription.NewGate] api client is required")
	}

	g := &Gate{
		api:    api,
		logger: zerolog.Nop(),
	}

	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Load fetches the subscription status for the given tenant. A 404 commits a
// nil status (no subscription, permissive); stale responses for a superseded
// tenant are discarded.
func (g *Gate) Load(ctx context.Context, tenantID string) error {
	g.mu.Lock()
	g.tenantID = tenantID
	g.mu.Unlock()

	var status Status
	err := g.api.Get(ctx, statusPath, &status)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.tenantID != tenantID {
		return nil
	}

	switch {
	case err == nil:
		g.status = &status
	case errors.Is(err, errors.ErrNotFound):
		g.status = nil
	default:
		// Keep the previous verdict; a transient fetch failure must not flip
		// the write gate.
		g.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("subscription status fetch failed")
		return errors.Wrapf(err, "subscription status")
	}
	return nil
}

// Refresh re-fetches the status for the current tenant. Callers invoke this
// after completing a billing action (e.g. adding a payment method).
func (g *Gate) Refresh(ctx context.Context) error {
	g.mu.RLock()
	tenantID := g.tenantID
	g.mu.RUnlock()
	return g.Load(ctx, tenantID)
}

// Status returns the current subscription document, nil when the tenant has
// no subscription record.
func (g *Gate) Status() *Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.status == nil {
		return nil
	}
	status := *g.status
	return &status
}

// CanWrite reports whether mutating UI actions are allowed. No subscription
// record defaults to true (fail-open, see the package comment).
func (g *Gate) CanWrite() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.status == nil {
		return true
	}
	return g.status.CanWrite
}

// IsBlocked reports the terminal blocked state.
func (g *Gate) IsBlocked() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status != nil && g.status.WarningLevel == WarningBlocked
}
