// Package auth owns authentication state: who the current visitor is, when
// their session is refreshed, and how failures back off. It is the single
// source of truth for the authenticated flag; nothing else mutates session
// state.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	interrors "github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/sessions"
)

// Defaults for the scheduling configuration.
const (
	DefaultRefreshThreshold   = 5 * time.Minute
	DefaultMaxCheckInterval   = 5 * time.Minute
	DefaultIdleTimeout        = 15 * time.Minute
	DefaultVisibilityDebounce = 30 * time.Second
	DefaultMaxFailures        = 5
)

// Recorder receives coordinator telemetry. Satisfied by
// metrics.SessionMetrics; a nil Recorder disables recording.
type Recorder interface {
	RecordCheck(status string)
	RecordRefresh(status string)
	SetFailureLevel(level int)
}

// State is a snapshot of the coordinator's authentication state. Presentation
// layers branch on this; errors never propagate past the coordinator.
type State struct {
	Authenticated       bool
	Loading             bool
	Session             *sessions.Session
	RateLimited         bool
	LastError           string
	ConsecutiveFailures int
}

// Coordinator keeps authentication state synchronized with the BFF: it
// deduplicates concurrent checks, schedules proactive refresh ahead of
// expiry, backs off on failure, and defers work while the environment is
// offline or idle.
type Coordinator struct {
	provider sessions.Provider
	env      Environment
	logger   zerolog.Logger
	recorder Recorder
	nowTime  func() time.Time

	refreshThreshold time.Duration
	maxCheckInterval time.Duration
	idleTimeout      time.Duration
	maxFailures      int
	visibilityGate   *rate.Limiter
	debounce         time.Duration

	mu         sync.Mutex
	state      State
	checking   bool
	refreshing bool
	timer      *time.Timer
	lastCheck  time.Time
	terminal   bool // max failures reached; no rescheduling until a fresh check succeeds
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Coordinator) {
		c.nowTime = nowFunc
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithRecorder attaches a telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = r
	}
}

// WithRefreshThreshold sets how far ahead of expiry a refresh is scheduled.
func WithRefreshThreshold(d time.Duration) Option {
	return func(c *Coordinator) {
		c.refreshThreshold = d
	}
}

// WithMaxCheckInterval caps the scheduling timer so long-lived sessions still
// get periodic rechecks.
func WithMaxCheckInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		c.maxCheckInterval = d
	}
}

// WithIdleTimeout sets how long without activity counts as idle.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.idleTimeout = d
	}
}

// WithVisibilityDebounce sets the minimum gap between visibility-triggered
// session checks.
func WithVisibilityDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		c.debounce = d
	}
}

// WithMaxFailures sets the consecutive refresh failures tolerated before the
// session is forced into the logged-out state.
func WithMaxFailures(n int) Option {
	return func(c *Coordinator) {
		c.maxFailures = n
	}
}

// NewCoordinator creates an auth coordinator over the given identity provider
// and environment.
func NewCoordinator(provider sessions.Provider, env Environment, options ...Option) (*Coordinator, error) {
	if provider == nil {
		return nil, errProviderRequired
	}
	if env == nil {
		env = AlwaysActiveEnvironment{}
	}

	c := &Coordinator{
		provider:         provider,
		env:              env,
		logger:           zerolog.Nop(),
		nowTime:          time.Now,
		refreshThreshold: DefaultRefreshThreshold,
		maxCheckInterval: DefaultMaxCheckInterval,
		idleTimeout:      DefaultIdleTimeout,
		maxFailures:      DefaultMaxFailures,
		debounce:         DefaultVisibilityDebounce,
		state:            State{Loading: true},
	}

	for _, opt := range options {
		opt(c)
	}

	c.visibilityGate = rate.NewLimiter(rate.Every(c.debounce), 1)
	return c, nil
}

// CheckSession validates the session against the provider and commits the
// result. A second invocation while one is outstanding is a no-op returning
// nil; a check attempted while offline is dropped the same way.
func (c *Coordinator) CheckSession(ctx context.Context) (*sessions.CheckResult, error) {
	if !c.env.Online() {
		c.logger.Debug().Msg("session check skipped: offline")
		return nil, nil
	}

	c.mu.Lock()
	if c.checking {
		c.mu.Unlock()
		return nil, nil
	}
	c.checking = true
	c.mu.Unlock()

	res, err := c.provider.Check(ctx)

	c.mu.Lock()
	c.checking = false
	c.lastCheck = c.nowTime()

	if err != nil || res == nil {
		// Provider implementations convert transport failures into results;
		// an error here is unexpected and treated as a failed check.
		c.state.Authenticated = false
		c.state.Session = nil
		c.state.Loading = false
		c.state.LastError = "session check failed"
		c.record(c.recordCheck, "error")
		c.stopTimerLocked()
		c.mu.Unlock()
		return nil, err
	}

	c.state.Loading = false
	c.state.RateLimited = res.RateLimited
	if res.Authenticated {
		c.state.Authenticated = true
		c.state.Session = res.Session
		c.state.LastError = ""
		c.state.ConsecutiveFailures = 0
		c.terminal = false
		c.record(c.recordCheck, "authenticated")
		c.scheduleLocked()
	} else if res.RateLimited {
		// Rate limiting is not a verdict on the session; keep current state
		// and let the existing schedule retry.
		c.state.LastError = res.Err
		c.record(c.recordCheck, "rate_limited")
	} else {
		c.state.Authenticated = false
		c.state.Session = nil
		c.state.LastError = res.Err
		c.record(c.recordCheck, "unauthenticated")
		c.stopTimerLocked()
	}
	c.mu.Unlock()

	return res, nil
}

// RefreshSession attempts a session refresh and reports success. A second
// invocation while one is outstanding, or one attempted offline, returns
// false without issuing a request. Success triggers a session check to pick
// up the new expiry and CSRF token.
func (c *Coordinator) RefreshSession(ctx context.Context) bool {
	if !c.env.Online() {
		c.logger.Debug().Msg("refresh skipped: offline")
		return false
	}

	c.mu.Lock()
	if c.refreshing || c.terminal {
		c.mu.Unlock()
		return false
	}
	c.refreshing = true
	c.mu.Unlock()

	ok, err := c.provider.Refresh(ctx)

	c.mu.Lock()
	c.refreshing = false

	if ok && err == nil {
		c.state.ConsecutiveFailures = 0
		c.record(c.recordRefresh, "success")
		c.recordFailureLevel(0)
		c.mu.Unlock()

		_, _ = c.CheckSession(ctx)
		return true
	}

	c.state.ConsecutiveFailures++
	failures := c.state.ConsecutiveFailures
	rateLimited := errors.Is(err, interrors.ErrRateLimited)
	c.state.RateLimited = rateLimited
	c.record(c.recordRefresh, "failure")
	c.recordFailureLevel(failures)
	c.logger.Warn().Err(err).Int("consecutive_failures", failures).Msg("session refresh failed")

	// Rate limiting backs off but is never a verdict on the session itself.
	if failures >= c.maxFailures && !rateLimited {
		// Terminal: force the logged-out state rather than retrying forever.
		c.state.Authenticated = false
		c.state.Session = nil
		c.state.LastError = "session refresh failed"
		c.terminal = true
		c.stopTimerLocked()
		c.logger.Error().Int("consecutive_failures", failures).Msg("max refresh failures reached, forcing logout")
	} else {
		c.scheduleLocked()
	}
	c.mu.Unlock()
	return false
}

// LoginURL builds the interactive login URL for the given state value.
func (c *Coordinator) LoginURL(state string) string {
	return c.provider.LoginURL(state)
}

// LogoutURL builds the interactive logout URL.
func (c *Coordinator) LogoutURL() string {
	return c.provider.LogoutURL()
}

// LogoutAsync performs a fetch-based logout, clears local state, and returns
// the server-provided redirect for the caller to follow.
func (c *Coordinator) LogoutAsync(ctx context.Context) (string, error) {
	redirect, err := c.provider.Logout(ctx)

	c.mu.Lock()
	c.state.Authenticated = false
	c.state.Session = nil
	c.state.LastError = ""
	c.state.ConsecutiveFailures = 0
	c.stopTimerLocked()
	c.mu.Unlock()

	return redirect, err
}

// Start runs the signal loop reacting to online/visibility/activity events
// until ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Coordinator) run(ctx context.Context) {
	signals := c.env.Signals()
	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.stopTimerLocked()
			c.mu.Unlock()
			return
		case sig, open := <-signals:
			if !open {
				return
			}
			c.handleSignal(ctx, sig)
		}
	}
}

func (c *Coordinator) handleSignal(ctx context.Context, sig Signal) {
	switch sig {
	case SignalOnline:
		// Scheduling paused while offline; resume immediately.
		c.logger.Debug().Msg("network online, rescheduling")
		c.mu.Lock()
		c.scheduleLocked()
		c.mu.Unlock()
	case SignalVisible:
		c.mu.Lock()
		sinceLast := c.nowTime().Sub(c.lastCheck)
		c.mu.Unlock()
		if sinceLast < c.debounce || !c.visibilityGate.Allow() {
			return
		}
		_, _ = c.CheckSession(ctx)
	case SignalActivity:
		// Idle state is tracked by the environment; nothing to do here.
	}
}

// State returns a snapshot of the current authentication state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := c.state
	if c.state.Session != nil {
		sess := *c.state.Session
		snapshot.Session = &sess
	}
	return snapshot
}

// Authenticated reports whether the visitor currently holds a valid session.
func (c *Coordinator) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Authenticated
}

// Session returns the current session, or nil when unauthenticated.
func (c *Coordinator) Session() *sessions.Session {
	return c.State().Session
}

// scheduleLocked (re)arms the refresh timer from the current session expiry.
// Callers must hold c.mu.
func (c *Coordinator) scheduleLocked() {
	c.stopTimerLocked()

	if !c.state.Authenticated || c.state.Session == nil || c.terminal {
		return
	}
	if !c.env.Online() {
		// Paused entirely; SignalOnline reschedules.
		return
	}

	delay := computeRefreshDelay(
		c.state.Session.ExpiresAt,
		c.state.ConsecutiveFailures,
		c.nowTime(),
		c.refreshThreshold,
		c.maxCheckInterval,
	)

	if delay == 0 {
		go c.attemptRefresh()
		return
	}

	c.logger.Debug().Dur("delay", delay).Msg("refresh scheduled")
	c.timer = time.AfterFunc(delay, c.onTimer)
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// onTimer re-validates that expiry is actually imminent before refreshing;
// a session renewed by an intervening check just reschedules.
func (c *Coordinator) onTimer() {
	c.mu.Lock()
	if !c.state.Authenticated || c.state.Session == nil {
		c.mu.Unlock()
		return
	}
	imminent := refreshImminent(c.state.Session.ExpiresAt, c.nowTime(), c.refreshThreshold)
	if !imminent {
		c.scheduleLocked()
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.attemptRefresh()
}

// attemptRefresh applies the idle and offline gates, then refreshes.
func (c *Coordinator) attemptRefresh() {
	if !c.env.Online() {
		// Paused; SignalOnline will reschedule.
		return
	}

	c.mu.Lock()
	sess := c.state.Session
	if sess == nil {
		c.mu.Unlock()
		return
	}
	remaining := sess.RemainingLife(c.nowTime())
	c.mu.Unlock()

	if c.env.IdleFor() > c.idleTimeout && remaining > idleSafetyWindow {
		// Unattended session with life to spare: defer, re-examine shortly.
		c.logger.Debug().Dur("remaining", remaining).Msg("refresh deferred: idle")
		c.mu.Lock()
		c.stopTimerLocked()
		c.timer = time.AfterFunc(idleDeferInterval, c.onTimer)
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c.RefreshSession(ctx)
}

func (c *Coordinator) record(fn func(string), status string) {
	if c.recorder != nil {
		fn(status)
	}
}

func (c *Coordinator) recordCheck(status string)   { c.recorder.RecordCheck(status) }
func (c *Coordinator) recordRefresh(status string) { c.recorder.RecordRefresh(status) }

func (c *Coordinator) recordFailureLevel(level int) {
	if c.recorder != nil {
		c.recorder.SetFailureLevel(level)
	}
}
