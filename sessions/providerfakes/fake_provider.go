package providerfakes

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-portal-session/sessions"
)

var _ sessions.Provider = (*FakeProvider)(nil)

// FakeProvider is a controllable sessions.Provider for tests.
type FakeProvider struct {
	lock sync.Mutex

	CheckResult  *sessions.CheckResult
	CheckErr     error
	CheckDelay   time.Duration
	RefreshOK    bool
	RefreshErr   error
	RedirectURL  string
	checkCalls   int
	refreshCalls int
	logoutCalls  int
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		CheckResult: &sessions.CheckResult{Err: "not authenticated"},
		RedirectURL: "/",
	}
}

func (f *FakeProvider) Check(ctx context.Context) (*sessions.CheckResult, error) {
	f.lock.Lock()
	f.checkCalls++
	res, err, delay := f.CheckResult, f.CheckErr, f.CheckDelay
	f.lock.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return res, err
}

func (f *FakeProvider) Refresh(ctx context.Context) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshCalls++
	return f.RefreshOK, f.RefreshErr
}

func (f *FakeProvider) FetchCSRFToken(ctx context.Context) (string, error) {
	return "fake-csrf", nil
}

func (f *FakeProvider) Logout(ctx context.Context) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.logoutCalls++
	return f.RedirectURL, nil
}

func (f *FakeProvider) LoginURL(state string) string {
	return "https://bff.example.com/login?state=" + state
}

func (f *FakeProvider) LogoutURL() string {
	return "https://bff.example.com/logout"
}

// SetCheckResult swaps the canned check result.
func (f *FakeProvider) SetCheckResult(res *sessions.CheckResult, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.CheckResult, f.CheckErr = res, err
}

// SetRefresh swaps the canned refresh outcome.
func (f *FakeProvider) SetRefresh(ok bool, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RefreshOK, f.RefreshErr = ok, err
}

// CheckCalls reports how many Check calls reached the provider.
func (f *FakeProvider) CheckCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.checkCalls
}

// RefreshCalls reports how many Refresh calls reached the provider.
func (f *FakeProvider) RefreshCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshCalls
}
