package permissions_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/permissions"
)

func newResolver(t *testing.T, handler http.Handler) *permissions.Resolver {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	r, err := permissions.NewResolver(api)
	require.NoError(t, err)
	return r
}

func TestResolver_Load(t *testing.T) {
	r := newResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(permissions.EffectivePermissions{
			Permissions:      []string{"campaigns.read", "campaigns.write"},
			Roles:            []string{"manager"},
			CanManageStaff:   true,
			MaxPriorityLevel: 50,
		})
	}))

	r.Load(context.Background(), "tenant-1")

	require.True(t, r.HasPermission("campaigns.read"))
	require.False(t, r.HasPermission("giftcards.write"))
	require.True(t, r.HasAnyPermission("giftcards.write", "campaigns.read"))
	require.False(t, r.HasAnyPermission("giftcards.write", "audit.read"))
	require.True(t, r.HasAllPermissions("campaigns.read", "campaigns.write"))
	require.False(t, r.HasAllPermissions("campaigns.read", "giftcards.write"))
}

func TestResolver_OwnerBypass(t *testing.T) {
	r := newResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(permissions.EffectivePermissions{
			Permissions:      nil, // owner needs no explicit grants
			MaxPriorityLevel: permissions.OwnerPriorityLevel,
		})
	}))

	r.Load(context.Background(), "tenant-1")

	require.True(t, r.HasPermission("anything.at.all"))
	require.True(t, r.HasAnyPermission("x", "y"))
	require.True(t, r.HasAllPermissions("x", "y", "z"))
}

func TestResolver_FetchFailureDegradesToEmpty(t *testing.T) {
	r := newResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	r.Load(context.Background(), "tenant-1")

	require.False(t, r.HasPermission("campaigns.read"))
	require.False(t, r.HasAnyPermission("campaigns.read"))
	// Vacuous truth matches denial-as-rendering: no capability named, nothing denied.
	require.True(t, r.HasAllPermissions())
}

func TestResolver_DefaultsDenyBeforeLoad(t *testing.T) {
	api, err := apiclient.New("http://localhost:1")
	require.NoError(t, err)
	r, err := permissions.NewResolver(api)
	require.NoError(t, err)

	require.False(t, r.HasPermission("campaigns.read"))
}
