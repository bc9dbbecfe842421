package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-portal-session/auth"
	"github.com/jrsteele09/go-portal-session/auth/envfakes"
	interrors "github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/sessions"
	"github.com/jrsteele09/go-portal-session/sessions/providerfakes"
)

func authenticatedResult(expiresAt int64) *sessions.CheckResult {
	return &sessions.CheckResult{
		Authenticated: true,
		Session: &sessions.Session{
			UserID:    "user-1",
			Email:     "john.doe@example.com",
			ExpiresAt: expiresAt,
			CSRFToken: "csrf-abc",
		},
	}
}

func TestCoordinator_CheckSessionDeduplication(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	provider.CheckDelay = 100 * time.Millisecond

	c, err := auth.NewCoordinator(provider, envfakes.NewFakeEnvironment())
	require.NoError(t, err)

	const callers = 8
	results := make([]*sessions.CheckResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.CheckSession(context.Background())
			require.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, provider.CheckCalls(), "only one check may reach the network")

	nonNil := 0
	for _, r := range results {
		if r != nil {
			nonNil++
		}
	}
	require.Equal(t, 1, nonNil, "concurrent callers get a nil no-op result")
}

func TestCoordinator_CheckSessionCommitsState(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	now := time.Now()
	provider.SetCheckResult(authenticatedResult(now.Add(time.Hour).Unix()), nil)

	c, err := auth.NewCoordinator(provider, envfakes.NewFakeEnvironment())
	require.NoError(t, err)

	res, err := c.CheckSession(context.Background())
	require.NoError(t, err)
	require.True(t, res.Authenticated)

	state := c.State()
	require.True(t, state.Authenticated)
	require.False(t, state.Loading)
	require.Equal(t, "user-1", state.Session.UserID)
	require.Zero(t, state.ConsecutiveFailures)
}

func TestCoordinator_ImminentExpiryRefreshesImmediately(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	now := time.Now()
	// Inside the refresh threshold: scheduling should refresh at once.
	provider.SetCheckResult(authenticatedResult(now.Add(time.Minute).Unix()), nil)
	provider.SetRefresh(false, fmt.Errorf("refresh unavailable"))

	c, err := auth.NewCoordinator(provider, envfakes.NewFakeEnvironment(),
		auth.WithRefreshThreshold(5*time.Minute))
	require.NoError(t, err)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return provider.RefreshCalls() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCoordinator_TerminalFailureForcesLogout(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	now := time.Now()
	provider.SetCheckResult(authenticatedResult(now.Add(time.Hour).Unix()), nil)
	provider.SetRefresh(false, fmt.Errorf("boom"))

	c, err := auth.NewCoordinator(provider, envfakes.NewFakeEnvironment(),
		auth.WithMaxFailures(2))
	require.NoError(t, err)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)
	require.True(t, c.Authenticated())

	require.False(t, c.RefreshSession(context.Background()))
	require.True(t, c.Authenticated(), "one failure is not terminal")

	require.False(t, c.RefreshSession(context.Background()))
	require.False(t, c.Authenticated(), "max failures forces the logged-out state")

	calls := provider.RefreshCalls()
	require.False(t, c.RefreshSession(context.Background()))
	require.Equal(t, calls, provider.RefreshCalls(), "no further refresh until a fresh check succeeds")

	// A fresh successful check re-arms everything.
	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)
	require.True(t, c.Authenticated())
	require.Zero(t, c.State().ConsecutiveFailures)
}

func TestCoordinator_RateLimitedRefreshIsNeverTerminal(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	now := time.Now()
	provider.SetCheckResult(authenticatedResult(now.Add(time.Hour).Unix()), nil)
	provider.SetRefresh(false, interrors.ErrRateLimited)

	c, err := auth.NewCoordinator(provider, envfakes.NewFakeEnvironment(),
		auth.WithMaxFailures(1))
	require.NoError(t, err)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)

	require.False(t, c.RefreshSession(context.Background()))
	state := c.State()
	require.True(t, state.Authenticated, "rate limiting must not log the user out")
	require.True(t, state.RateLimited)
}

func TestCoordinator_OfflineGating(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	env := envfakes.NewFakeEnvironment()
	env.SetOnline(false)

	c, err := auth.NewCoordinator(provider, env)
	require.NoError(t, err)

	res, err := c.CheckSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, res)
	require.Zero(t, provider.CheckCalls(), "no network call while offline")

	require.False(t, c.RefreshSession(context.Background()))
	require.Zero(t, provider.RefreshCalls())
}

func TestCoordinator_OnlineSignalResumesScheduling(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	now := time.Now()
	provider.SetCheckResult(authenticatedResult(now.Add(time.Minute).Unix()), nil)
	provider.SetRefresh(false, fmt.Errorf("still failing"))

	env := envfakes.NewFakeEnvironment()
	c, err := auth.NewCoordinator(provider, env,
		auth.WithRefreshThreshold(5*time.Minute),
		auth.WithMaxFailures(100))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)

	env.SetOnline(false)
	refreshesWhileOffline := provider.RefreshCalls()

	env.SetOnline(true)
	require.Eventually(t, func() bool {
		return provider.RefreshCalls() > refreshesWhileOffline
	}, 6*time.Second, 10*time.Millisecond, "online signal resumes scheduling")
}

func TestCoordinator_IdleDefersRefresh(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	now := time.Now()
	// Inside the refresh threshold, but with minutes of session life left.
	provider.SetCheckResult(authenticatedResult(now.Add(4*time.Minute).Unix()), nil)

	env := envfakes.NewFakeEnvironment()
	env.SetIdleFor(time.Hour)

	c, err := auth.NewCoordinator(provider, env,
		auth.WithRefreshThreshold(5*time.Minute),
		auth.WithIdleTimeout(15*time.Minute))
	require.NoError(t, err)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)

	time.Sleep(500 * time.Millisecond)
	require.Zero(t, provider.RefreshCalls(), "an unattended session with life to spare is not refreshed")
	require.True(t, c.Authenticated())
}

func TestCoordinator_IdleSafetyOverride(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	now := time.Now()
	// Under a minute of life left: idleness no longer defers the refresh.
	provider.SetCheckResult(authenticatedResult(now.Add(30*time.Second).Unix()), nil)
	provider.SetRefresh(false, fmt.Errorf("refresh unavailable"))

	env := envfakes.NewFakeEnvironment()
	env.SetIdleFor(time.Hour)

	c, err := auth.NewCoordinator(provider, env,
		auth.WithRefreshThreshold(5*time.Minute),
		auth.WithIdleTimeout(15*time.Minute))
	require.NoError(t, err)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return provider.RefreshCalls() >= 1
	}, 2*time.Second, 10*time.Millisecond, "near expiry the idle gate must yield")
}

func TestCoordinator_VisibilityDebounce(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	env := envfakes.NewFakeEnvironment()

	c, err := auth.NewCoordinator(provider, env,
		auth.WithVisibilityDebounce(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, provider.CheckCalls())

	// A visibility flap right after a check stays inside the debounce window.
	env.SetVisible(false)
	env.SetVisible(true)

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, provider.CheckCalls(), "tab switching must not cause bursty rechecks")
}

func TestCoordinator_LogoutAsync(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	provider.RedirectURL = "https://idp.example.com/logged-out"
	now := time.Now()
	provider.SetCheckResult(authenticatedResult(now.Add(time.Hour).Unix()), nil)

	c, err := auth.NewCoordinator(provider, envfakes.NewFakeEnvironment())
	require.NoError(t, err)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)
	require.True(t, c.Authenticated())

	redirect, err := c.LogoutAsync(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://idp.example.com/logged-out", redirect)
	require.False(t, c.Authenticated())
}

func TestCoordinator_LoginURL(t *testing.T) {
	provider := providerfakes.NewFakeProvider()
	c, err := auth.NewCoordinator(provider, nil)
	require.NoError(t, err)

	require.Contains(t, c.LoginURL("state-1"), "state=state-1")
	require.NotEmpty(t, c.LogoutURL())
}
