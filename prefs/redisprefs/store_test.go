package redisprefs_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-portal-session/prefs/redisprefs"
)

func newStore(t *testing.T) (*redisprefs.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redisprefs.New(client), mr
}

func TestStore_LastStorefront(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	got, err := s.LastStorefront(ctx, "tenant-1")
	require.NoError(t, err)
	require.Empty(t, got, "missing entry reads as empty, not as an error")

	require.NoError(t, s.SetLastStorefront(ctx, "tenant-1", "storefront-7"))

	got, err = s.LastStorefront(ctx, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, "storefront-7", got)
}

func TestStore_KeysAreTenantScoped(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetLastStorefront(ctx, "tenant-1", "storefront-a"))
	require.NoError(t, s.SetLastStorefront(ctx, "tenant-2", "storefront-b"))

	got, err := s.LastStorefront(ctx, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, "storefront-a", got)

	got, err = s.LastStorefront(ctx, "tenant-2")
	require.NoError(t, err)
	require.Equal(t, "storefront-b", got)
}

func TestStore_Favorites(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	got, err := s.Favorites(ctx, "tenant-1")
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, s.SetFavorites(ctx, "tenant-1", []string{"campaigns", "gift-cards"}))

	got, err = s.Favorites(ctx, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, []string{"campaigns", "gift-cards"}, got)

	t.Run("corrupt entry is dropped", func(t *testing.T) {
		require.NoError(t, mr.Set("prefs:tenant-1:favorites", "{not json"))

		got, err := s.Favorites(ctx, "tenant-1")
		require.NoError(t, err)
		require.Empty(t, got)
	})
}
