package server

import (
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ClientInfo is the externally visible snapshot of one connection, as
// served by the debug interface.
type ClientInfo struct {
	ID          int64     `json:"id"`
	Addr        string    `json:"addr"`
	ConnectedAt time.Time `json:"connected_at"`
	LastCommand time.Time `json:"last_command"`
	Commands    int64     `json:"commands"`
}

// client tracks the per-connection state for a single TCP client.
type client struct {
	id          int64
	conn        net.Conn
	addr        string
	connectedAt time.Time

	lastCommand atomic.Int64 // unix nanos of the most recent command
	commands    atomic.Int64
}

// touch records command activity on the connection.
func (c *client) touch(now time.Time) {
	c.lastCommand.Store(now.UnixNano())
	c.commands.Add(1)
}

// Registry tracks live client connections for stats and idle reaping.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*client
	nextID  int64
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[int64]*client),
	}
}

// Add registers a connection and returns its tracking handle.
func (r *Registry) Add(conn net.Conn, now time.Time) *client {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	c := &client{
		id:          r.nextID,
		conn:        conn,
		addr:        conn.RemoteAddr().String(),
		connectedAt: now,
	}
	c.lastCommand.Store(now.UnixNano())
	r.clients[c.id] = c
	return c
}

// Remove drops a connection from the registry.
func (r *Registry) Remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Snapshot returns the current connections sorted by id.
func (r *Registry) Snapshot() []ClientInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ClientInfo, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, ClientInfo{
			ID:          c.id,
			Addr:        c.addr,
			ConnectedAt: c.connectedAt,
			LastCommand: time.Unix(0, c.lastCommand.Load()),
			Commands:    c.commands.Load(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CloseIdle closes every connection whose last command predates cutoff
// and reports how many it closed. Closing the socket makes the handler's
// next read fail, which runs the normal cleanup path.
func (r *Registry) CloseIdle(cutoff time.Time) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	closed := 0
	for _, c := range r.clients {
		if time.Unix(0, c.lastCommand.Load()).Before(cutoff) {
			c.conn.Close()
			closed++
		}
	}
	return closed
}

// CloseAll closes every tracked connection. Used during shutdown to make
// blocked reads return.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clients {
		c.conn.Close()
	}
}
