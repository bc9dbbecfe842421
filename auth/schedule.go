package auth

import "time"

// Scheduling constants. Backoff doubles per consecutive failure from a one
// second base and never exceeds the cap; idle deferrals retry on a short
// fixed interval so an idle session is re-examined without busy-looping.
const (
	backoffBase       = time.Second
	backoffCap        = 5 * time.Minute
	idleDeferInterval = time.Minute
	// idleSafetyWindow overrides idle gating when this little session life
	// remains, so an unattended tab is never logged out short of expiry.
	idleSafetyWindow = 60 * time.Second
)

// computeRefreshDelay returns how long to wait before the next refresh
// attempt. Zero means refresh immediately.
//
// The base delay targets the refresh threshold before expiry. Any nonzero
// consecutive-failure count floors the delay at min(2^failures * 1s, 5m) so
// a failing endpoint is retried on an exponential backoff rather than
// hammered. The result is capped at maxCheckInterval so long-lived sessions
// still get periodic rechecks.
func computeRefreshDelay(expiresAt int64, failures int, now time.Time, threshold, maxCheckInterval time.Duration) time.Duration {
	delay := time.Unix(expiresAt, 0).Sub(now) - threshold

	if failures > 0 {
		floor := backoffFor(failures)
		if delay < floor {
			delay = floor
		}
	}

	if delay <= 0 {
		return 0
	}
	if delay > maxCheckInterval {
		delay = maxCheckInterval
	}
	return delay
}

// backoffFor returns the exponential backoff floor for a failure count.
func backoffFor(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	// Shift overflows past 62; everything above the cap is the cap anyway.
	if failures > 20 {
		return backoffCap
	}
	d := backoffBase * time.Duration(1<<uint(failures))
	if d > backoffCap {
		return backoffCap
	}
	return d
}

// refreshImminent reports whether the session is inside the refresh window.
// The timer re-validates this on fire so a refresh rescheduled by an
// intervening check does not fire early.
func refreshImminent(expiresAt int64, now time.Time, threshold time.Duration) bool {
	return time.Unix(expiresAt, 0).Sub(now)-threshold <= 0
}
