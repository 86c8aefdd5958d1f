package store

import "time"

// entry represents a single value stored under a key.
//
// Design choices:
// - value is owned by the store; callers always receive copies.
// - Zero value of expiresAt means "no expiration".
// - version increases on every write to the key, so a reader that decided
//   to reclaim an expired entry can tell whether the key was refreshed
//   in the meantime.
type entry struct {
	value     []byte
	expiresAt time.Time
	version   uint64
}

// expired checks whether the entry is expired at the given time.
// The boundary instant itself counts as expired.
func (e entry) expired(now time.Time) bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return !now.Before(e.expiresAt)
}
