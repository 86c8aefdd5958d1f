package command

import (
	"time"

	"redis-server/internal/metrics"
	"redis-server/internal/store"
)

// TTL reply sentinels: distinct negative values so a missing key and a
// key without an expiration never collide with a real remaining time.
const (
	ttlNoKey    = -2
	ttlNoExpiry = -1
)

// Engine evaluates parsed commands against the store. It holds no state
// of its own between calls; all durable state lives in the store.
type Engine struct {
	store   *store.Store
	metrics *metrics.Registry
	now     func() time.Time
}

// NewEngine creates an Engine running on wall-clock time.
func NewEngine(st *store.Store, metricsRegistry *metrics.Registry) *Engine {
	return NewEngineWithClock(st, metricsRegistry, time.Now)
}

// NewEngineWithClock creates an Engine whose notion of "now" comes from
// clock. Tests use this to drive simulated time through expiry paths.
func NewEngineWithClock(st *store.Store, metricsRegistry *metrics.Registry, clock func() time.Time) *Engine {
	return &Engine{
		store:   st,
		metrics: metricsRegistry,
		now:     clock,
	}
}

// Execute runs a single command and returns its reply.
//
// The clock is sampled exactly once per call, so a batch command applies
// one consistent instant to every key it touches: an MSET's pairs share
// a deadline, and an MGET cannot see one key live and an identically
// configured key expired.
func (e *Engine) Execute(cmd Command) Reply {
	e.metrics.Inc(metrics.CommandsTotal)
	now := e.now()

	switch cmd.Kind {
	case Ping:
		if cmd.Message != nil {
			return Bulk(cmd.Message)
		}
		return SimpleString("PONG")

	case Get:
		value, ok := e.store.Get(cmd.Key, now)
		if !ok {
			return Nil()
		}
		return Bulk(value)

	case Set:
		e.store.Set(cmd.Key, cmd.Value, ttlDuration(cmd), now)
		return SimpleString("OK")

	case MGet:
		values := e.store.MGet(cmd.Keys, now)
		elems := make([]Reply, len(values))
		for i, v := range values {
			if v == nil {
				elems[i] = Nil()
			} else {
				elems[i] = Bulk(v)
			}
		}
		return Array(elems)

	case MSet:
		pairs := make([]store.Pair, len(cmd.Pairs))
		for i, p := range cmd.Pairs {
			pairs[i] = store.Pair{Key: p.Key, Value: p.Value}
		}
		e.store.MSet(pairs, ttlDuration(cmd), now)
		return SimpleString("OK")

	case Del:
		var removed int64
		for _, key := range cmd.Keys {
			if e.store.Delete(key, now) {
				removed++
			}
		}
		return Int(removed)

	case Exists:
		var found int64
		for _, key := range cmd.Keys {
			if e.store.Exists(key, now) {
				found++
			}
		}
		return Int(found)

	case TTL:
		state, secs := e.store.TTL(cmd.Key, now)
		switch state {
		case store.TTLNoKey:
			return Int(ttlNoKey)
		case store.TTLNoExpiry:
			return Int(ttlNoExpiry)
		default:
			return Int(secs)
		}

	default:
		return Error("ERR unknown command")
	}
}

func ttlDuration(cmd Command) time.Duration {
	if !cmd.HasTTL {
		return 0
	}
	return time.Duration(cmd.TTLSeconds) * time.Second
}
