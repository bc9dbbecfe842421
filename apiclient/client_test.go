package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-portal-session/apiclient"
	"github.com/jrsteele09/go-portal-session/internal/errors"
)

func TestClient_IdentityHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	c.SetTenantID("tenant-1")
	c.SetUserInfo("user-1", "john.doe@example.com")
	c.SetVendorID("vendor-1")
	c.SetCSRFToken("csrf-abc")

	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "/api/ping", &out))

	require.Equal(t, "tenant-1", got.Get(apiclient.HeaderTenantID))
	require.Equal(t, "user-1", got.Get(apiclient.HeaderUserID))
	require.Equal(t, "john.doe@example.com", got.Get(apiclient.HeaderUserEmail))
	require.Equal(t, "vendor-1", got.Get(apiclient.HeaderVendorID))
	require.NotEmpty(t, got.Get(apiclient.HeaderRequestID))

	t.Run("csrf only on mutating methods", func(t *testing.T) {
		require.Empty(t, got.Get(apiclient.HeaderCSRFToken))
		require.NoError(t, c.Post(context.Background(), "/api/ping", map[string]string{}, &out))
		require.Equal(t, "csrf-abc", got.Get(apiclient.HeaderCSRFToken))
	})
}

func TestClient_EmptyHeadersNotSent(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "/", &out))

	_, hasTenant := got[apiclient.HeaderTenantID]
	require.False(t, hasTenant)
	_, hasUser := got[apiclient.HeaderUserID]
	require.False(t, hasUser)
}

func TestClient_StatusErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, errors.ErrUnauthenticated},
		{"not found", http.StatusNotFound, errors.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, errors.ErrRateLimited},
		{"forbidden", http.StatusForbidden, errors.ErrTenantAccessDenied},
		{"server error", http.StatusInternalServerError, errors.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c, err := apiclient.New(srv.URL)
			require.NoError(t, err)

			err = c.Get(context.Background(), "/api/anything", nil)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := apiclient.New("")
	require.Error(t, err)
}
