package server

import "time"

// Config carries everything the server needs at startup.
type Config struct {
	// Addr is the TCP listen address for the client protocol.
	Addr string

	// DebugAddr is the HTTP debug interface address. Empty disables it.
	DebugAddr string

	// MaxClients caps concurrent connections. Zero means unlimited.
	MaxClients int

	// IdleTimeout closes clients silent for this long. Zero disables
	// idle reaping.
	IdleTimeout time.Duration

	// SweepInterval is the background expiry sweep period. Zero leaves
	// expired keys to lazy reclamation only.
	SweepInterval time.Duration
}

// DefaultConfig returns the configuration used when no flags override it.
func DefaultConfig() Config {
	return Config{
		Addr:          ":6379",
		DebugAddr:     "",
		MaxClients:    10000,
		IdleTimeout:   0,
		SweepInterval: 30 * time.Second,
	}
}
