// Package portal wires the coordination layer together behind an explicit
// initialization barrier: identity is fully resolved and stamped onto the
// HTTP client before permissions, subscription state, or anything above them
// may fetch. Page-level components receive a Shell only after Bootstrap
// reports Ready, which is what guarantees no request ever leaves with stale
// or missing tenant identity.
package portal

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/auth"
	"github.com/jrsteele09/go-portal-session/bridge"
	"github.com/jrsteele09/go-portal-session/permissions"
	"github.com/jrsteele09/go-portal-session/prefs"
	"github.com/jrsteele09/go-portal-session/sessions"
	"github.com/jrsteele09/go-portal-session/subscription"
	"github.com/jrsteele09/go-portal-session/tenants"
)

// Components holds all collaborator dependencies for the Shell.
type Components struct {
	API          *apiclient.Client
	Provider     sessions.Provider
	Coordinator  *auth.Coordinator
	Tenants      *tenants.Resolver
	Binder       *bridge.Binder
	Permissions  *permissions.Resolver
	Subscription *subscription.Gate
	Prefs        prefs.Store // optional; advisory UI preferences
}

// Shell is the bootstrapped coordination layer handed to page components.
type Shell struct {
	components Components
	hostname   string
	logger     zerolog.Logger
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the shell logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// New creates a Shell for the given hostname (the host the portal was opened
// on, which drives tenant resolution).
func New(components Components, hostname string, options ...Option) (*Shell, error) {
	if components.API == nil {
		return nil, fmt.Errorf("[portal.New] API client is required")
	}
	if components.Provider == nil {
		return nil, fmt.Errorf("[portal.New] session provider is required")
	}
	if components.Coordinator == nil {
		return nil, fmt.Errorf("[portal.New] auth coordinator is required")
	}
	if components.Tenants == nil {
		return nil, fmt.Errorf("[portal.New] tenant resolver is required")
	}
	if components.Binder == nil {
		return nil, fmt.Errorf("[portal.New] binder is required")
	}
	if components.Permissions == nil {
		return nil, fmt.Errorf("[portal.New] permission resolver is required")
	}
	if components.Subscription == nil {
		return nil, fmt.Errorf("[portal.New] subscription gate is required")
	}
	if hostname == "" {
		return nil, fmt.Errorf("[portal.New] hostname is required")
	}

	s := &Shell{
		components: components,
		hostname:   hostname,
		logger:     zerolog.Nop(),
	}

	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Bootstrap resolves identity end to end and returns the barrier status.
// The sequencing is the point: CSRF and session first, then the tenant list,
// then the bind that stamps headers, and only after the bind the dependent
// permission and subscription fetches (which run concurrently, both keyed by
// the bound tenant). On Ready the coordinator's background scheduling starts.
func (s *Shell) Bootstrap(ctx context.Context) (bridge.Status, error) {
	c := s.components

	if _, err := c.Provider.FetchCSRFToken(ctx); err != nil {
		// The session check may still succeed; the token is re-fetched on it.
		s.logger.Warn().Err(err).Msg("csrf token fetch failed")
	}

	if _, err := c.Coordinator.CheckSession(ctx); err != nil {
		return bridge.StatusPending, fmt.Errorf("session check: %w", err)
	}

	sess := c.Coordinator.Session()
	if sess == nil {
		status := c.Binder.Bind(nil, nil)
		s.logger.Info().Msg("bootstrap: unauthenticated")
		return status, nil
	}

	if err := c.Tenants.Load(ctx); err != nil {
		return bridge.StatusPending, fmt.Errorf("tenant load: %w", err)
	}

	tenant, err := c.Tenants.Resolve(s.hostname)
	if err != nil {
		status := c.Binder.Bind(sess, nil)
		s.logger.Warn().Err(err).Str("hostname", s.hostname).Msg("bootstrap: tenant resolution failed")
		return status, nil
	}

	status := c.Binder.Bind(sess, tenant)
	if status != bridge.StatusReady {
		return status, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Permissions.Load(gctx, tenant.ID)
		return nil
	})
	g.Go(func() error {
		// Subscription fetch errors keep the previous verdict; they do not
		// fail the bootstrap.
		_ = c.Subscription.Load(gctx, tenant.ID)
		return nil
	})
	_ = g.Wait()

	c.Coordinator.Start(ctx)
	s.logger.Info().
		Str("tenant_id", tenant.ID).
		Str("user_id", sess.UserID).
		Msg("bootstrap complete")
	return status, nil
}

// SwitchTenant returns the hard-navigation URL for moving to another tenant,
// preserving currentPath.
func (s *Shell) SwitchTenant(slug, currentPath string) (string, error) {
	return s.components.Tenants.SwitchURL(slug, currentPath)
}

// API returns the shared BFF client for page components.
func (s *Shell) API() *apiclient.Client {
	return s.components.API
}

// Auth returns the auth coordinator.
func (s *Shell) Auth() *auth.Coordinator {
	return s.components.Coordinator
}

// Tenants returns the tenant resolver.
func (s *Shell) Tenants() *tenants.Resolver {
	return s.components.Tenants
}

// Permissions returns the permission resolver.
func (s *Shell) Permissions() *permissions.Resolver {
	return s.components.Permissions
}

// Subscription returns the subscription gate.
func (s *Shell) Subscription() *subscription.Gate {
	return s.components.Subscription
}

// Prefs returns the preference store, nil when not configured.
func (s *Shell) Prefs() prefs.Store {
	return s.components.Prefs
}

// Status returns the current barrier status.
func (s *Shell) Status() bridge.Status {
	return s.components.Binder.Status()
}

// Ready reports whether page components may issue requests.
func (s *Shell) Ready() bool {
	return s.components.Binder.Ready()
}
