package envfakes

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-portal-session/auth"
)

var _ auth.Environment = (*FakeEnvironment)(nil)

// FakeEnvironment is a controllable auth.Environment for tests.
type FakeEnvironment struct {
	lock    sync.RWMutex
	online  bool
	visible bool
	idleFor time.Duration
	signals chan auth.Signal
}

func NewFakeEnvironment() *FakeEnvironment {
	return &FakeEnvironment{
		online:  true,
		visible: true,
		signals: make(chan auth.Signal, 16),
	}
}

func (e *FakeEnvironment) Online() bool {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.online
}

func (e *FakeEnvironment) Visible() bool {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.visible
}

func (e *FakeEnvironment) IdleFor() time.Duration {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.idleFor
}

func (e *FakeEnvironment) Signals() <-chan auth.Signal {
	return e.signals
}

// SetOnline flips connectivity; going online emits SignalOnline.
func (e *FakeEnvironment) SetOnline(online bool) {
	e.lock.Lock()
	wasOffline := !e.online
	e.online = online
	e.lock.Unlock()
	if online && wasOffline {
		e.signals <- auth.SignalOnline
	}
}

// SetVisible flips visibility; regaining it emits SignalVisible.
func (e *FakeEnvironment) SetVisible(visible bool) {
	e.lock.Lock()
	wasHidden := !e.visible
	e.visible = visible
	e.lock.Unlock()
	if visible && wasHidden {
		e.signals <- auth.SignalVisible
	}
}

// SetIdleFor sets the reported idle duration.
func (e *FakeEnvironment) SetIdleFor(d time.Duration) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.idleFor = d
}
