package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addPipeClient(t *testing.T, r *Registry, now time.Time) (*client, net.Conn) {
	t.Helper()
	server, remote := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		remote.Close()
	})
	return r.Add(server, now), remote
}

func TestRegistryAddRemoveCount(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	c1, _ := addPipeClient(t, r, now)
	c2, _ := addPipeClient(t, r, now)

	assert.Equal(t, 2, r.Count())
	assert.NotEqual(t, c1.id, c2.id, "ids must be unique")

	r.Remove(c1.id)
	assert.Equal(t, 1, r.Count())

	// Removing twice is harmless.
	r.Remove(c1.id)
	assert.Equal(t, 1, r.Count())
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	c1, _ := addPipeClient(t, r, now)
	addPipeClient(t, r, now)

	c1.touch(now.Add(time.Second))
	c1.touch(now.Add(2 * time.Second))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, c1.id, snap[0].ID, "snapshot should be sorted by id")
	assert.Equal(t, int64(2), snap[0].Commands)
	assert.Equal(t, now.Add(2*time.Second).UnixNano(), snap[0].LastCommand.UnixNano())
	assert.Equal(t, int64(0), snap[1].Commands)
}

func TestRegistryCloseIdle(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	_, idleRemote := addPipeClient(t, r, now.Add(-time.Hour))
	busy, _ := addPipeClient(t, r, now.Add(-time.Hour))
	busy.touch(now)

	closed := r.CloseIdle(now.Add(-time.Minute))
	assert.Equal(t, 1, closed)

	// The idle side's peer sees the close.
	idleRemote.SetReadDeadline(time.Now().Add(time.Second))
	_, err := idleRemote.Read(make([]byte, 1))
	assert.Error(t, err)

	// Only the idle connection was touched; both stay registered until
	// their handlers exit.
	assert.Equal(t, 2, r.Count())
}

func TestRegistryCloseAll(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	_, remote1 := addPipeClient(t, r, now)
	_, remote2 := addPipeClient(t, r, now)

	r.CloseAll()

	for _, remote := range []net.Conn{remote1, remote2} {
		remote.SetReadDeadline(time.Now().Add(time.Second))
		_, err := remote.Read(make([]byte, 1))
		assert.Error(t, err)
	}
}
