package subscription_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/subscription"
)

func newGate(t *testing.T, handler http.Handler) *subscription.Gate {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	g, err := subscription.NewGate(api)
	require.NoError(t, err)
	return g
}

func TestGate_Load(t *testing.T) {
	g := newGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(subscription.Status{
			Status:       "active",
			PlanID:       "plan-pro",
			PlanName:     "Pro",
			CanRead:      true,
			CanWrite:     true,
			WarningLevel: subscription.WarningNone,
		})
	}))

	require.NoError(t, g.Load(context.Background(), "tenant-1"))
	require.NotNil(t, g.Status())
	require.True(t, g.CanWrite())
	require.False(t, g.IsBlocked())
}

func TestGate_404IsNoSubscriptionAndPermissive(t *testing.T) {
	g := newGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	require.NoError(t, g.Load(context.Background(), "tenant-1"))
	require.Nil(t, g.Status())
	require.True(t, g.CanWrite(), "permissive default when no subscription record exists")
	require.False(t, g.IsBlocked())
}

func TestGate_BlockedTenant(t *testing.T) {
	g := newGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(subscription.Status{
			Status:       "past_due",
			CanRead:      true,
			CanWrite:     false,
			WarningLevel: subscription.WarningBlocked,
		})
	}))

	require.NoError(t, g.Load(context.Background(), "tenant-1"))
	require.False(t, g.CanWrite())
	require.True(t, g.IsBlocked())
}

func TestGate_TransientFailureKeepsPreviousVerdict(t *testing.T) {
	var fail atomic.Bool
	g := newGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(subscription.Status{
			Status:       "active",
			CanWrite:     false,
			WarningLevel: subscription.WarningUrgent,
		})
	}))

	require.NoError(t, g.Load(context.Background(), "tenant-1"))
	require.False(t, g.CanWrite())

	fail.Store(true)
	require.Error(t, g.Refresh(context.Background()))
	require.False(t, g.CanWrite(), "transient fetch failures must not flip the gate")
}

func TestGate_RefreshPicksUpBillingChanges(t *testing.T) {
	var canWrite atomic.Bool
	g := newGate(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(subscription.Status{
			Status:   "active",
			CanWrite: canWrite.Load(),
		})
	}))

	require.NoError(t, g.Load(context.Background(), "tenant-1"))
	require.False(t, g.CanWrite())

	// The tenant adds a payment method; the caller forces re-evaluation.
	canWrite.Store(true)
	require.NoError(t, g.Refresh(context.Background()))
	require.True(t, g.CanWrite())
}
