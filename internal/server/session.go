// Package server manages individual WebSocket sessions, handling the read
// pump, heartbeat, command dispatch and lifecycle control for each connection.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/Tyrowin/roomchat/internal/broker"
	"github.com/gorilla/websocket"
)

// Coordinator is the part of the broker a Session talks to.
type Coordinator interface {
	Connect(ctx context.Context, h broker.Handle) (broker.SessionID, error)
	Disconnect(id broker.SessionID)
	Send(id broker.SessionID, room, text string)
	Join(ctx context.Context, id broker.SessionID, room string) error
	ListRooms(ctx context.Context) ([]string, error)
}

// State is the lifecycle stage of a Session.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateDisconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateDisconnecting:
		return "disconnecting"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// inboundFrame is what the read pump hands to the session loop: a data or
// control frame, or the error that ended reading.
type inboundFrame struct {
	messageType int
	data        []byte
	err         error
}

// Session is one live WebSocket connection. A single loop owns its protocol
// state, its heartbeat and every data frame written to the socket.
type Session struct {
	conn        *websocket.Conn
	coordinator Coordinator
	cfg         Config
	log         *slog.Logger
	addr        string

	outbox      *outbox
	inbound     chan inboundFrame
	stopped     chan struct{}
	readDone    chan struct{}
	rateLimiter *rateLimiter
	state       atomic.Int32

	// Owned by the session loop.
	id       broker.SessionID
	room     string
	name     string
	lastSeen time.Time
}

// NewSession creates a Session for an upgraded connection. Run starts it.
func NewSession(conn *websocket.Conn, coordinator Coordinator, cfg Config, log *slog.Logger, addr string) *Session {
	cfg = sanitizeConfig(cfg)
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Session{
		conn:        conn,
		coordinator: coordinator,
		cfg:         cfg,
		log:         log.With("addr", addr),
		addr:        addr,
		outbox:      newOutbox(cfg.SendBufferSize),
		inbound:     make(chan inboundFrame, 16),
		stopped:     make(chan struct{}),
		readDone:    make(chan struct{}),
		rateLimiter: newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitInterval),
		room:        broker.MainRoom,
	}
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev != next {
		s.log.Debug("Session state changed", "from", prev.String(), "to", next.String())
	}
}

// Run registers the session with the coordinator and serves the connection
// until the peer leaves, the heartbeat fails or ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	defer s.close()

	id, err := s.coordinator.Connect(ctx, s.outbox)
	if err != nil {
		s.log.Error("Session registration failed", "err", err)
		return
	}
	s.id = id
	s.log = s.log.With("session", id)
	s.lastSeen = time.Now()
	s.setState(StateActive)
	s.log.Info("Session connected", "room", s.room)

	s.setupReadConnection()
	go s.readPump()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for s.State() == StateActive {
		select {
		case <-ctx.Done():
			s.log.Debug("Session cancelled", "err", ctx.Err())
			s.setState(StateDisconnecting)
		case frame := <-s.inbound:
			s.handleFrame(ctx, frame)
		case <-ticker.C:
			s.heartbeat()
		case text := <-s.outbox.queue:
			s.writeText(text)
		}
	}
}

// close runs once the loop has left the Active state.
func (s *Session) close() {
	s.setState(StateDisconnecting)
	if s.id != "" {
		s.coordinator.Disconnect(s.id)
	}
	s.outbox.close()
	close(s.stopped)

	if s.conn != nil {
		s.writeClose()
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.log.Warn("Error closing connection", "err", err)
		}
	}
	if s.id != "" {
		<-s.readDone
	}

	s.setState(StateClosed)
	s.log.Info("Session closed")
}

// setupReadConnection routes pongs and pings through the session loop so
// that liveness is tracked by the loop alone.
func (s *Session) setupReadConnection() {
	s.conn.SetPongHandler(func(string) error {
		s.forward(inboundFrame{messageType: websocket.PongMessage})
		return nil
	})
	s.conn.SetPingHandler(func(appData string) error {
		s.forward(inboundFrame{messageType: websocket.PingMessage})
		err := s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(s.cfg.WriteWait))
		if err != nil && !isExpectedCloseError(err) {
			return err
		}
		return nil
	})
}

func (s *Session) forward(frame inboundFrame) bool {
	select {
	case s.inbound <- frame:
		return true
	case <-s.stopped:
		return false
	}
}

func (s *Session) readPump() {
	defer close(s.readDone)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if !s.forward(inboundFrame{messageType: messageType, data: data, err: err}) || err != nil {
			return
		}
	}
}

func (s *Session) handleFrame(ctx context.Context, frame inboundFrame) {
	if frame.err != nil {
		s.logReadError(frame.err)
		s.setState(StateDisconnecting)
		return
	}

	s.lastSeen = time.Now()

	switch frame.messageType {
	case websocket.TextMessage:
		if !utf8.Valid(frame.data) {
			s.log.Warn("Text frame is not valid UTF-8, disconnecting", "bytes", len(frame.data))
			s.setState(StateDisconnecting)
			return
		}
		if !s.checkRateLimit() {
			return
		}
		s.handleText(ctx, string(frame.data))
	case websocket.BinaryMessage:
		s.log.Info("Unexpected binary frame", "bytes", len(frame.data))
	}
}

// handleText applies the command grammar to one text frame.
func (s *Session) handleText(ctx context.Context, frame string) {
	cmd := ParseCommand(frame)

	switch cmd.Kind {
	case CommandList:
		rooms, err := s.coordinator.ListRooms(ctx)
		if err != nil {
			s.log.Error("Listing rooms failed", "err", err)
			return
		}
		for _, room := range rooms {
			s.writeText(room)
		}

	case CommandJoin:
		if !cmd.HasArg {
			s.writeText(RoomNameRequiredReply)
			return
		}
		if err := s.coordinator.Join(ctx, s.id, cmd.Arg); err != nil {
			s.log.Error("Joining room failed", "room", cmd.Arg, "err", err)
			return
		}
		s.room = cmd.Arg
		s.writeText(JoinedReply(s.id))

	case CommandName:
		if !cmd.HasArg {
			s.writeText(NameRequiredReply)
			return
		}
		s.name = cmd.Arg

	case CommandUnknown:
		s.log.Debug("Invalid command", "text", cmd.Text)
		s.writeText(UnknownCommandReply(cmd.Text))

	default:
		s.coordinator.Send(s.id, s.room, ChatText(s.name, cmd.Text))
	}
}

// heartbeat closes a session that has been silent for longer than
// ClientTimeout and pings it otherwise.
func (s *Session) heartbeat() {
	if time.Since(s.lastSeen) > s.cfg.ClientTimeout {
		s.log.Info("Heartbeat failed, disconnecting", "last_seen", s.lastSeen)
		s.setState(StateDisconnecting)
		return
	}

	if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteWait)); err != nil {
		if !isExpectedCloseError(err) {
			s.log.Warn("Error writing ping message", "err", err)
		}
		s.setState(StateDisconnecting)
	}
}

func (s *Session) writeText(text string) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait)); err != nil {
		s.log.Warn("Error setting write deadline", "err", err)
		s.setState(StateDisconnecting)
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		if !isExpectedCloseError(err) {
			s.log.Warn("Error writing message", "err", err)
		}
		s.setState(StateDisconnecting)
	}
}

func (s *Session) writeClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteWait)); err != nil {
		if !isExpectedCloseError(err) && !errors.Is(err, websocket.ErrCloseSent) {
			s.log.Debug("Error writing close message", "err", err)
		}
	}
}

// checkRateLimit reports whether the frame may be processed.
func (s *Session) checkRateLimit() bool {
	if !s.rateLimiter.allow() {
		s.log.Warn("Rate limit exceeded; discarding message",
			"burst", s.cfg.RateLimitBurst, "interval", s.cfg.RateLimitInterval)
		return false
	}
	return true
}

// logReadError logs why reading stopped, at a level matching how expected
// the cause is.
func (s *Session) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		s.log.Warn("Message exceeded maximum size", "limit", s.cfg.MaxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		s.log.Info("Client disconnected", "reason", err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), isExpectedCloseError(err):
		s.log.Info("Client connection closed", "reason", err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		s.log.Warn("Unexpected WebSocket close", "err", err)
	default:
		s.log.Warn("WebSocket read error", "err", err)
	}
}
