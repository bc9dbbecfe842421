package prefsfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-portal-session/prefs"
)

var _ prefs.Store = (*FakeStore)(nil)

// FakeStore is an in-memory prefs.Store for tests and dev mode.
type FakeStore struct {
	lock        sync.RWMutex
	storefronts map[string]string
	favorites   map[string][]string
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		storefronts: make(map[string]string),
		favorites:   make(map[string][]string),
	}
}

func (f *FakeStore) LastStorefront(ctx context.Context, tenantID string) (string, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.storefronts[tenantID], nil
}

func (f *FakeStore) SetLastStorefront(ctx context.Context, tenantID, storefrontID string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.storefronts[tenantID] = storefrontID
	return nil
}

func (f *FakeStore) Favorites(ctx context.Context, tenantID string) ([]string, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	out := make([]string, len(f.favorites[tenantID]))
	copy(out, f.favorites[tenantID])
	return out, nil
}

func (f *FakeStore) SetFavorites(ctx context.Context, tenantID string, favorites []string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	stored := make([]string, len(favorites))
	copy(stored, favorites)
	f.favorites[tenantID] = stored
	return nil
}
