package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-portal-session/bridge"
	"github.com/jrsteele09/go-portal-session/sessions"
	"github.com/jrsteele09/go-portal-session/tenants"
)

// recordingClient spies on setter calls and their order.
type recordingClient struct {
	calls    []string
	tenantID string
	userID   string
	email    string
	vendorID string
}

func (r *recordingClient) SetTenantID(tenantID string) {
	r.calls = append(r.calls, "tenant:"+tenantID)
	r.tenantID = tenantID
}

func (r *recordingClient) SetUserInfo(userID, email string) {
	r.calls = append(r.calls, "user:"+userID)
	r.userID = userID
	r.email = email
}

func (r *recordingClient) SetVendorID(vendorID string) {
	r.calls = append(r.calls, "vendor:"+vendorID)
	r.vendorID = vendorID
}

func testSession() *sessions.Session {
	return &sessions.Session{UserID: "user-1", Email: "john.doe@example.com"}
}

func testTenant() *tenants.Tenant {
	return &tenants.Tenant{ID: "tenant-1", Slug: "acme"}
}

func TestBinder_BindStampsHeadersBeforeReady(t *testing.T) {
	rec := &recordingClient{}
	b := bridge.New(rec)

	require.Equal(t, bridge.StatusPending, b.Status())
	require.False(t, b.Ready())

	status := b.Bind(testSession(), testTenant())
	require.Equal(t, bridge.StatusReady, status)
	require.True(t, b.Ready())

	// All three headers stamped, tenant first.
	require.Equal(t, []string{"tenant:tenant-1", "user:user-1", "vendor:tenant-1"}, rec.calls)
}

func TestBinder_RebindSameIdentityIsANoOp(t *testing.T) {
	rec := &recordingClient{}
	b := bridge.New(rec)

	b.Bind(testSession(), testTenant())
	callsAfterFirst := len(rec.calls)

	b.Bind(testSession(), testTenant())
	require.Equal(t, callsAfterFirst, len(rec.calls), "setters fire only on change")
}

func TestBinder_TenantChangeRestamps(t *testing.T) {
	rec := &recordingClient{}
	b := bridge.New(rec)

	b.Bind(testSession(), testTenant())
	b.Bind(testSession(), &tenants.Tenant{ID: "tenant-2", Slug: "globex"})

	require.Equal(t, "tenant-2", rec.tenantID)
	require.Equal(t, "tenant-2", rec.vendorID, "fallback vendor follows the tenant")
}

func TestBinder_VendorRule(t *testing.T) {
	t.Run("explicit vendor id wins", func(t *testing.T) {
		rec := &recordingClient{}
		b := bridge.New(rec)

		sess := testSession()
		sess.VendorID = "vendor-9"
		b.Bind(sess, testTenant())
		require.Equal(t, "vendor-9", rec.vendorID)
	})

	t.Run("tenant id doubles as vendor id", func(t *testing.T) {
		rec := &recordingClient{}
		b := bridge.New(rec)

		b.Bind(testSession(), testTenant())
		require.Equal(t, "tenant-1", rec.vendorID)
	})
}

func TestBinder_TerminalStates(t *testing.T) {
	t.Run("nil session is unauthenticated", func(t *testing.T) {
		rec := &recordingClient{}
		b := bridge.New(rec)

		require.Equal(t, bridge.StatusUnauthenticated, b.Bind(nil, testTenant()))
		require.Empty(t, rec.calls, "no headers are stamped for an unauthenticated visitor")
	})

	t.Run("nil tenant is store not found", func(t *testing.T) {
		rec := &recordingClient{}
		b := bridge.New(rec)

		require.Equal(t, bridge.StatusStoreNotFound, b.Bind(testSession(), nil))
		require.False(t, b.Ready())
	})
}
