// Package server owns the WebSocket endpoint and the sessions it spawns.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/broker"
	"github.com/gorilla/websocket"
)

// Server serves the chat endpoints for one Broker. It tracks every session
// goroutine so Shutdown can wait for them.
type Server struct {
	cfg      Config
	broker   *broker.Broker
	log      *slog.Logger
	origins  *originPolicy
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closing  bool
	sessions sync.WaitGroup
}

// NewServer creates a Server sharing b across all sessions.
func NewServer(cfg Config, b *broker.Broker, log *slog.Logger) *Server {
	cfg = sanitizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:     cfg,
		broker:  b,
		log:     log,
		origins: newOriginPolicy(cfg.AllowedOrigins(), log),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	return s
}

// startSession runs session in its own goroutine unless the server is
// shutting down.
func (s *Server) startSession(session *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}
	s.sessions.Add(1)
	go func() {
		defer s.sessions.Done()
		session.Run(s.ctx)
	}()
	return true
}

// Shutdown closes every session and waits for their goroutines, or until the
// timeout is reached.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.log.Info("Closing chat sessions...")

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("Chat sessions closed")
		return nil
	case <-time.After(timeout):
		s.log.Warn("Session shutdown timeout reached, some sessions may still be running")
		return context.DeadlineExceeded
	}
}
