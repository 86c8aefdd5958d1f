package store

import (
	"sync"
	"time"

	"redis-server/internal/metrics"
)

// TTLState classifies what TTL reports for a key.
type TTLState int

const (
	// TTLNoKey means the key is absent (or expired, which is the same thing).
	TTLNoKey TTLState = iota
	// TTLNoExpiry means the key exists and never expires.
	TTLNoExpiry
	// TTLExpiring means the key exists and the remaining lifetime applies.
	TTLExpiring
)

// Pair is one key/value assignment in a batch write.
type Pair struct {
	Key   string
	Value []byte
}

// Store is a concurrency-safe in-memory key–value store with per-key
// expiration.
//
// Design principles:
// - Safe for concurrent access using RWMutex
// - Expired keys are logically absent the instant their deadline passes,
//   whether or not they still occupy memory
// - Reads reclaim expired entries they run into; a background sweeper
//   handles the rest
// - Every operation takes the instant it should be evaluated at, so one
//   command observes one consistent time across all keys it touches
type Store struct {
	mu      sync.RWMutex
	data    map[string]entry
	version uint64 // guarded by mu, bumped on every write
	metrics *metrics.Registry
}

// NewStore initializes and returns a new Store.
func NewStore(metricsRegistry *metrics.Registry) *Store {
	return &Store{
		data:    make(map[string]entry),
		metrics: metricsRegistry,
	}
}

// Get retrieves a value from the store.
//
// Behavior:
// - Returns (value, true) if the key exists and is not expired at now
// - If the key is expired, it is reclaimed and treated as missing
// - The returned slice is a copy the caller owns
func (s *Store) Get(key string, now time.Time) ([]byte, bool) {
	s.metrics.Inc(metrics.StoreGetsTotal)

	s.mu.RLock()
	e, exists := s.data[key]
	s.mu.RUnlock()

	if !exists {
		s.metrics.Inc(metrics.StoreMissesTotal)
		return nil, false
	}

	if e.expired(now) {
		s.reclaim(key, e.version)
		s.metrics.Inc(metrics.StoreMissesTotal)
		return nil, false
	}

	s.metrics.Inc(metrics.StoreHitsTotal)
	return append([]byte(nil), e.value...), true
}

// Set inserts or updates a key.
//
// A ttl of zero (or less) stores the key without an expiration. Otherwise
// the key expires at now+ttl.
func (s *Store) Set(key string, value []byte, ttl time.Duration, now time.Time) {
	expiresAt := deadline(ttl, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(key, value, expiresAt)
}

// MSet applies every pair under a single lock acquisition, so the batch
// becomes visible atomically and every pair shares the exact same
// expiration deadline.
func (s *Store) MSet(pairs []Pair, ttl time.Duration, now time.Time) {
	expiresAt := deadline(ttl, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pairs {
		s.setLocked(p.Key, p.Value, expiresAt)
	}
}

// MGet looks up every key independently at the same instant. The result
// has one element per requested key, nil where the key was missing or
// expired.
func (s *Store) MGet(keys []string, now time.Time) [][]byte {
	out := make([][]byte, len(keys))
	for i, key := range keys {
		if v, ok := s.Get(key, now); ok {
			out[i] = v
		}
	}
	return out
}

// Delete removes a key from the store.
//
// It reports whether a live key was removed: deleting a key that is
// already expired frees the memory but returns false, because the key
// was logically gone before the call.
func (s *Store) Delete(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return false
	}

	delete(s.data, key)
	s.metrics.Add(metrics.StoreKeysResident, -1)

	if e.expired(now) {
		s.metrics.Inc(metrics.StoreExpiredTotal)
		return false
	}

	s.metrics.Inc(metrics.StoreDeletesTotal)
	return true
}

// Exists reports whether the key holds a live value at now. An expired
// entry it runs into is reclaimed on the spot.
func (s *Store) Exists(key string, now time.Time) bool {
	s.mu.RLock()
	e, exists := s.data[key]
	s.mu.RUnlock()

	if !exists {
		return false
	}
	if e.expired(now) {
		s.reclaim(key, e.version)
		return false
	}
	return true
}

// TTL reports the expiration state of a key.
//
// Behavior:
// - (TTLNoKey, 0) if the key is absent or expired at now
// - (TTLNoExpiry, 0) if the key exists without an expiration
// - (TTLExpiring, n) with n the remaining whole seconds, rounded down
func (s *Store) TTL(key string, now time.Time) (TTLState, int64) {
	s.mu.RLock()
	e, exists := s.data[key]
	s.mu.RUnlock()

	if !exists {
		return TTLNoKey, 0
	}
	if e.expired(now) {
		s.reclaim(key, e.version)
		return TTLNoKey, 0
	}
	if e.expiresAt.IsZero() {
		return TTLNoExpiry, 0
	}

	return TTLExpiring, int64(e.expiresAt.Sub(now) / time.Second)
}

// Len returns the number of resident keys, expired stragglers included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// RemoveExpired removes all keys expired at now.
//
// This is used by the background expiry sweeper.
func (s *Store) RemoveExpired(now time.Time) int {
	removed := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
			removed++
		}
	}

	if removed > 0 {
		s.metrics.Add(metrics.StoreExpiredTotal, int64(removed))
		s.metrics.Add(metrics.StoreKeysResident, -int64(removed))
	}

	return removed
}

// reclaim removes an expired key, but only if it still holds the exact
// write the caller observed. A concurrent Set bumps the version, turning
// the stale reclamation into a no-op so a refreshed key is never lost.
func (s *Store) reclaim(key string, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok || e.version != version {
		return
	}

	delete(s.data, key)
	s.metrics.Inc(metrics.StoreExpiredTotal)
	s.metrics.Add(metrics.StoreKeysResident, -1)
}

// setLocked stores a fresh copy of value under key. Callers hold s.mu.
func (s *Store) setLocked(key string, value []byte, expiresAt time.Time) {
	if _, exists := s.data[key]; !exists {
		s.metrics.Inc(metrics.StoreKeysResident)
	}
	s.metrics.Inc(metrics.StoreSetsTotal)

	s.version++
	s.data[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: expiresAt,
		version:   s.version,
	}
}

// deadline converts a relative ttl into an absolute expiration instant,
// zero when the ttl is unset.
func deadline(ttl time.Duration, now time.Time) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
