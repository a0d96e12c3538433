// Package server implements the Modbus TCP collaborator the shell
// fronts: a small simulation server whose responses are altered
// according to the manipulator config.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/danmuck/modbusctl/internal/manipulator"
	"github.com/danmuck/modbusctl/internal/observability"
	"github.com/danmuck/modbusctl/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrNotStarted = errors.New("server: not started")

// Config holds the listener settings for the simulation server.
type Config struct {
	Addr   string
	UnitID uint8
}

func DefaultConfig() Config {
	return Config{Addr: ":5020", UnitID: 1}
}

// Server owns the TCP listener and connection goroutines. The
// manipulator store is shared with the shell loop, which is its only
// writer.
type Server struct {
	cfg   Config
	store *manipulator.Store
	data  *DataStore

	mu       sync.Mutex
	ln       net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

func New(cfg Config, store *manipulator.Store) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	return &Server{
		cfg:     cfg,
		store:   store,
		data:    NewDataStore(),
		conns:   make(map[net.Conn]struct{}),
		stopped: make(chan struct{}),
	}
}

// Start binds the listener and begins accepting in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	log.Info().
		Str("addr", ln.Addr().String()).
		Uint8("unit_id", s.cfg.UnitID).
		Msg("modbus server listening")

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// UpdateManipulator replaces the manipulation config and returns the
// adopted value. Called by the shell after a valid manipulator command.
func (s *Server) UpdateManipulator(u manipulator.Update) manipulator.Config {
	cfg := s.store.Replace(u)
	log.Info().Str("config", cfg.String()).Msg("manipulator config updated")
	return cfg
}

// Stop closes the listener and every open connection, then waits for
// connection goroutines to drain or the context to expire. Safe to
// call more than once.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return ErrNotStarted
	}

	s.stopOnce.Do(func() {
		close(s.stopped)
		_ = ln.Close()
		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()
		log.Info().Msg("modbus server stopping")
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stopped:
			default:
				log.Warn().Err(err).Msg("accept failed")
			}
			return
		}
		observability.RecordConnection()
		s.trackConn(conn)
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) trackConn(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrackConn(conn)
	defer conn.Close()

	logger := log.With().
		Str("conn", uuid.NewString()[:8]).
		Str("remote", conn.RemoteAddr().String()).
		Logger()
	logger.Info().Msg("client connected")
	defer logger.Info().Msg("client disconnected")

	for {
		req, err := protocol.ReadADU(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			observability.RecordFrameError()
			logger.Warn().Err(err).Msg("dropping connection on bad frame")
			return
		}

		cfg := s.store.Next()
		if err := s.respond(conn, req, cfg, logger); err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logger.Warn().Err(err).Msg("write failed")
			}
			return
		}
		observability.RecordResponse(string(cfg.Mode))
	}
}

// respond writes the (possibly manipulated) response for one request.
func (s *Server) respond(conn net.Conn, req protocol.ADU, cfg manipulator.Config, logger zerolog.Logger) error {
	switch cfg.Mode {
	case manipulator.ModeError:
		logger.Debug().
			Int("error_code", cfg.ErrorCode).
			Uint8("function", req.FunctionCode()).
			Msg("forcing exception response")
		pdu := protocol.ExceptionResponse(req.FunctionCode(), protocol.ExceptionCode(cfg.ErrorCode))
		return protocol.WriteADU(conn, protocol.ADU{Header: req.Header, PDU: pdu})

	case manipulator.ModeDelayed:
		logger.Debug().Int("delay_by", cfg.DelayBy).Msg("delaying response")
		if err := s.sleep(time.Duration(cfg.DelayBy) * time.Second); err != nil {
			return err
		}
		return protocol.WriteADU(conn, protocol.ADU{Header: req.Header, PDU: s.handlePDU(req.PDU)})

	case manipulator.ModeEmpty:
		logger.Debug().Msg("suppressing response")
		return nil

	case manipulator.ModeStray:
		n := cfg.StrayLen()
		logger.Debug().Int("data_len", n).Msg("sending stray payload")
		garbage := make([]byte, n)
		if _, err := rand.Read(garbage); err != nil {
			return err
		}
		_, err := conn.Write(garbage)
		return err

	default:
		return protocol.WriteADU(conn, protocol.ADU{Header: req.Header, PDU: s.handlePDU(req.PDU)})
	}
}

// sleep waits the delay out but aborts early on server shutdown.
func (s *Server) sleep(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-s.stopped:
		return net.ErrClosed
	}
}
