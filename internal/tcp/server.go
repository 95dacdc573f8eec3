package tcp

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/wqdsca/police-thief/internal/fabric"
	"github.com/wqdsca/police-thief/internal/idgen"
	"github.com/wqdsca/police-thief/internal/perf/scheduler"
	"github.com/wqdsca/police-thief/internal/wire"
)

// Handler processes one decoded inbound envelope for a session. Errors
// returned here are translated into a typed ErrorResponse to the caller
// without terminating the session (spec.md §7's Protocol/Authorization/
// Logic classes); only transport-level failures terminate a session.
type Handler func(ctx context.Context, sessionID int64, env *wire.Envelope) (*wire.Envelope, error)

// Router dispatches inbound message kinds to handlers, the single
// tagged-union match of spec.md §9 (no per-message vtables).
type Router struct {
	handlers map[wire.Kind]Handler
}

// NewRouter constructs an empty Router.
func NewRouter() *Router { return &Router{handlers: make(map[wire.Kind]Handler)} }

// Handle registers a handler for kind.
func (r *Router) Handle(kind wire.Kind, h Handler) { r.handlers[kind] = h }

func (r *Router) dispatch(ctx context.Context, sessionID int64, env *wire.Envelope) (*wire.Envelope, error) {
	h, ok := r.handlers[env.Kind]
	if !ok {
		return nil, errors.New("tcp: unknown message kind")
	}
	return h(ctx, sessionID, env)
}

// Config tunes the TCP server.
type Config struct {
	Host              string
	Port              int
	MaxFrameSize      int
	HeartbeatInterval time.Duration
	WriteTimeout      time.Duration
}

func (c *Config) setDefaults() {
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

// Server is the TCP pipeline of spec.md §4.7.
type Server struct {
	cfg    Config
	fab    *fabric.Fabric
	sched  *scheduler.Scheduler
	router *Router
	ids    *idgen.Generator
	log    zerolog.Logger

	listener net.Listener
	stop     chan struct{}
}

// New constructs a Server. Call Serve to start accepting.
func New(cfg Config, fab *fabric.Fabric, sched *scheduler.Scheduler, router *Router, ids *idgen.Generator, log zerolog.Logger) *Server {
	cfg.setDefaults()
	return &Server{cfg: cfg, fab: fab, sched: sched, router: router, ids: ids, log: log, stop: make(chan struct{})}
}

// Serve binds the listener and runs the accept loop until Close is
// called or a fatal bind error occurs (spec.md §6 exit code 2).
func (s *Server) Serve() error {
	addr := net.JoinHostPort(s.cfg.Host, itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go s.heartbeatLoop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return nil
			default:
				s.log.Error().Err(err).Msg("tcp accept failed")
				continue
			}
		}
		go s.handleConn(conn)
	}
}

// Close stops the accept loop and listener.
func (s *Server) Close() error {
	close(s.stop)
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) handleConn(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}

	sessionID := s.ids.Next()
	cw := &connWriter{conn: conn, writeTimeout: func() { conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)) }}
	writer := fabric.NewSafeWriter(cw, s.cfg.WriteTimeout)
	s.fab.RegisterSession(sessionID, conn.RemoteAddr().String(), writer)

	log := s.log.With().Int64("session_id", sessionID).Logger()
	log.Debug().Msg("session accepted")

	defer func() {
		s.fab.RemoveSession(sessionID)
		conn.Close()
		log.Debug().Msg("session closed")
	}()

	for {
		payload, err := ReadFrame(conn, s.cfg.MaxFrameSize)
		if err != nil {
			log.Debug().Err(err).Msg("read failed, closing session")
			return
		}

		env, err := wire.Decode(payload)
		if err != nil {
			log.Debug().Err(err).Msg("decode failed, closing session")
			return
		}

		s.submit(sessionID, env, &log)
	}
}

func (s *Server) submit(sessionID int64, env *wire.Envelope, log *zerolog.Logger) {
	priority := wire.PriorityOf(env.Kind)
	_, ok := s.sched.Submit(priority, time.Time{}, func(ctx context.Context) {
		s.fab.Touch(sessionID)

		resp, err := s.router.dispatch(ctx, sessionID, env)
		if err != nil {
			resp = &wire.Envelope{Kind: wire.KindErrorResponse, ErrorResponse: &wire.ErrorResponse{Message: err.Error()}}
		}
		if resp == nil {
			return
		}

		encoded, encErr := wire.Encode(resp, false)
		if encErr != nil {
			log.Debug().Err(encErr).Msg("failed to encode response")
			return
		}
		s.fab.SendToSession(sessionID, encoded, s.cfg.WriteTimeout)
	})
	if !ok {
		log.Debug().Msg("scheduler queue full, dropping message")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
