package server

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"redis-server/internal/command"
	"redis-server/internal/logs"
	"redis-server/internal/metrics"
	"redis-server/internal/resp"
)

// Server accepts TCP clients and runs their commands through the engine,
// one goroutine per connection.
type Server struct {
	cfg      Config
	engine   *command.Engine
	registry *Registry
	logger   *logs.Logger
	metrics  *metrics.Registry

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	wg sync.WaitGroup
}

// New creates a Server. Start must be called before it accepts anything.
func New(
	cfg Config,
	engine *command.Engine,
	registry *Registry,
	logger *logs.Logger,
	metricsRegistry *metrics.Registry,
) *Server {
	return &Server{
		cfg:      cfg,
		engine:   engine,
		registry: registry,
		logger:   logger,
		metrics:  metricsRegistry,
	}
}

// Start listens on the configured address and serves until the context
// is cancelled or Close is called. It blocks for the server's lifetime.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Addr)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Infof("listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Errorf("accept: %v", err)
			continue
		}
		s.handleNewConn(conn)
	}
}

// Addr returns the bound listen address, or "" before Start has bound it.
// Useful when the configured address had port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops accepting, disconnects every client and waits for their
// handlers to finish. Safe to call more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.registry.CloseAll()
	s.wg.Wait()

	s.logger.Info("server stopped")
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handleNewConn(conn net.Conn) {
	if s.cfg.MaxClients > 0 && s.registry.Count() >= s.cfg.MaxClients {
		s.metrics.Inc(metrics.ConnectionsRejectedTotal)
		s.logger.Warnf("connection limit reached, rejecting %s", conn.RemoteAddr())

		w := resp.NewWriter(conn)
		w.WriteError("ERR max number of clients reached")
		w.Flush()
		conn.Close()
		return
	}

	c := s.registry.Add(conn, time.Now())
	s.metrics.Inc(metrics.ConnectionsOpenedTotal)
	s.metrics.Add(metrics.ConnectionsActive, 1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			conn.Close()
			s.registry.Remove(c.id)
			s.metrics.Add(metrics.ConnectionsActive, -1)
			s.logger.Debugf("client %d disconnected", c.id)
		}()
		s.serveConn(c)
	}()
}

// serveConn runs the read-execute-reply loop for one client.
//
// Command-level errors (bad arity, unknown command, malformed operands)
// are answered on the wire and the connection keeps going. Framing
// errors also get an answer, but the connection is dropped because the
// stream may no longer be aligned on request boundaries.
func (s *Server) serveConn(c *client) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("panic while serving client %d: %v", c.id, r)
		}
	}()

	s.logger.Debugf("client %d connected from %s", c.id, c.addr)

	r := resp.NewReader(c.conn)
	w := resp.NewWriter(c.conn)

	for {
		args, err := r.ReadCommand()
		if err != nil {
			var pe resp.ProtocolError
			if errors.As(err, &pe) {
				s.metrics.Inc(metrics.CommandErrorsTotal)
				s.logger.Debugf("client %d: %v", c.id, err)
				w.WriteError(pe.Error())
				w.Flush()
				return
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debugf("client %d read: %v", c.id, err)
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		c.touch(time.Now())

		cmd, err := command.Parse(args)
		if err != nil {
			s.metrics.Inc(metrics.CommandErrorsTotal)
			if !s.reply(w, command.Error(err.Error())) {
				return
			}
			continue
		}

		if !s.reply(w, s.engine.Execute(cmd)) {
			return
		}
	}
}

// reply writes and flushes one reply, reporting whether the connection
// is still usable.
func (s *Server) reply(w *resp.Writer, reply command.Reply) bool {
	if err := w.WriteReply(reply); err != nil {
		return false
	}
	if err := w.Flush(); err != nil {
		return false
	}
	return true
}
