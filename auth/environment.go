package auth

import "time"

// Signal is a platform event the coordinator reacts to.
type Signal int

const (
	// SignalOnline fires when network connectivity returns.
	SignalOnline Signal = iota + 1
	// SignalVisible fires when the portal regains foreground visibility.
	SignalVisible
	// SignalActivity fires on user activity; the environment tracks idle
	// time itself, the signal only wakes the coordinator.
	SignalActivity
)

// Environment abstracts the platform signals (network, visibility, idleness)
// the scheduling algorithm depends on, so it is testable without a real
// browser or desktop shell behind it.
type Environment interface {
	Online() bool
	Visible() bool
	IdleFor() time.Duration
	Signals() <-chan Signal
}

// AlwaysActiveEnvironment is the environment of a headless deployment:
// permanently online, visible, and never idle.
type AlwaysActiveEnvironment struct{}

var _ Environment = AlwaysActiveEnvironment{}

func (AlwaysActiveEnvironment) Online() bool           { return true }
func (AlwaysActiveEnvironment) Visible() bool          { return true }
func (AlwaysActiveEnvironment) IdleFor() time.Duration { return 0 }
func (AlwaysActiveEnvironment) Signals() <-chan Signal { return nil }
