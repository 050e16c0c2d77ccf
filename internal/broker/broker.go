package broker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

const defaultQueueSize = 256

// Stats summarizes the Broker state at one point of its command stream.
type Stats struct {
	Sessions int `json:"sessions"`
	Rooms    int `json:"rooms"`
}

// Option customizes a Broker at construction.
type Option func(*Broker)

// WithIDGenerator replaces the UUID generator used by Connect.
func WithIDGenerator(gen IDGenerator) Option {
	return func(b *Broker) {
		if gen != nil {
			b.newID = gen
		}
	}
}

// WithQueueSize sets the capacity of the command queue.
func WithQueueSize(size int) Option {
	return func(b *Broker) {
		if size > 0 {
			b.commands = make(chan command, size)
		}
	}
}

// Broker is the single authority over registered sessions and rooms.
// The sessions and rooms maps are only read and written by Run.
type Broker struct {
	sessions map[SessionID]Handle
	rooms    map[string]map[SessionID]struct{}
	commands chan command
	newID    IDGenerator
	log      *slog.Logger
	done     chan struct{}
}

// NewBroker creates a Broker with MainRoom already present. Call Run to
// start processing commands.
func NewBroker(log *slog.Logger, opts ...Option) *Broker {
	b := &Broker{
		sessions: make(map[SessionID]Handle),
		rooms: map[string]map[SessionID]struct{}{
			MainRoom: {},
		},
		commands: make(chan command, defaultQueueSize),
		newID:    NewUUID,
		log:      log,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run applies commands one at a time until ctx is cancelled. It must be
// called exactly once.
func (b *Broker) Run(ctx context.Context) error {
	defer close(b.done)
	b.log.Info("Broker started", "room", MainRoom)

	for {
		select {
		case <-ctx.Done():
			b.log.Info("Broker stopped", "sessions", len(b.sessions), "rooms", len(b.rooms))
			return ctx.Err()
		case cmd := <-b.commands:
			b.apply(cmd)
		}
	}
}

// Done is closed once Run has returned.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

// Connect registers h, places the new session in MainRoom and returns its
// identifier.
func (b *Broker) Connect(ctx context.Context, h Handle) (SessionID, error) {
	reply := make(chan SessionID, 1)
	if err := b.enqueue(ctx, connectCmd{handle: h, reply: reply}); err != nil {
		return "", err
	}

	id, err := await(ctx, b, reply)
	if err != nil {
		// The command is already queued: undo the registration once it lands.
		go func() {
			select {
			case id := <-reply:
				b.Disconnect(id)
			case <-b.done:
			}
		}()
		return "", err
	}
	return id, nil
}

// Disconnect removes the session from the registry and from its room. It
// does not wait for the command to be applied, but blocks while the command
// queue is full. It returns immediately once the Broker has stopped.
func (b *Broker) Disconnect(id SessionID) {
	b.post(disconnectCmd{id: id})
}

// Send delivers text to every member of room except the sender. Like
// Disconnect, it only blocks while the command queue is full.
func (b *Broker) Send(id SessionID, room, text string) {
	b.post(sendCmd{id: id, room: room, text: text})
}

// Join moves the session into room, creating the room when needed.
func (b *Broker) Join(ctx context.Context, id SessionID, room string) error {
	reply := make(chan error, 1)
	if err := b.enqueue(ctx, joinCmd{id: id, room: room, reply: reply}); err != nil {
		return err
	}
	joinErr, err := await(ctx, b, reply)
	if err != nil {
		return err
	}
	return joinErr
}

// ListRooms returns the sorted names of all known rooms.
func (b *Broker) ListRooms(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	if err := b.enqueue(ctx, listRoomsCmd{reply: reply}); err != nil {
		return nil, err
	}
	return await(ctx, b, reply)
}

// Stats returns the number of registered sessions and known rooms.
func (b *Broker) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if err := b.enqueue(ctx, statsCmd{reply: reply}); err != nil {
		return Stats{}, err
	}
	return await(ctx, b, reply)
}

// Snapshot returns every room with its sorted member identifiers.
func (b *Broker) Snapshot(ctx context.Context) (map[string][]SessionID, error) {
	reply := make(chan map[string][]SessionID, 1)
	if err := b.enqueue(ctx, snapshotCmd{reply: reply}); err != nil {
		return nil, err
	}
	return await(ctx, b, reply)
}

func (b *Broker) enqueue(ctx context.Context, cmd command) error {
	select {
	case b.commands <- cmd:
		return nil
	case <-b.done:
		return ErrBrokerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Broker) post(cmd command) {
	select {
	case b.commands <- cmd:
	case <-b.done:
		b.log.Debug("Broker stopped, dropping command", "command", fmt.Sprintf("%T", cmd))
	}
}

func await[T any](ctx context.Context, b *Broker, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-b.done:
		return zero, ErrBrokerStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (b *Broker) apply(cmd command) {
	switch c := cmd.(type) {
	case connectCmd:
		c.reply <- b.connect(c.handle)
	case disconnectCmd:
		b.disconnect(c.id)
	case sendCmd:
		b.send(c.id, c.room, c.text)
	case joinCmd:
		c.reply <- b.join(c.id, c.room)
	case listRoomsCmd:
		names := lo.Keys(b.rooms)
		slices.Sort(names)
		c.reply <- names
	case statsCmd:
		c.reply <- Stats{Sessions: len(b.sessions), Rooms: len(b.rooms)}
	case snapshotCmd:
		c.reply <- lo.MapValues(b.rooms, func(members map[SessionID]struct{}, _ string) []SessionID {
			ids := lo.Keys(members)
			slices.Sort(ids)
			return ids
		})
	default:
		b.log.Error("Unsupported broker command", "command", fmt.Sprintf("%T", cmd))
	}
}

func (b *Broker) connect(h Handle) SessionID {
	id := b.allocateID()

	b.broadcast(MainRoom, JoinedMainNotice(id), id)
	b.sessions[id] = h
	b.rooms[MainRoom][id] = struct{}{}

	b.log.Debug("Session connected", "session", id, "sessions", len(b.sessions))
	return id
}

func (b *Broker) allocateID() SessionID {
	for {
		id := b.newID()
		if _, taken := b.sessions[id]; !taken && id != "" {
			return id
		}
		b.log.Warn("Session identifier already in use, drawing again", "session", id)
	}
}

func (b *Broker) disconnect(id SessionID) {
	if _, ok := b.sessions[id]; !ok {
		b.log.Debug("Disconnect for unknown session", "session", id)
		return
	}
	delete(b.sessions, id)

	for _, room := range b.leaveAll(id) {
		b.broadcast(room, DisconnectedNotice(id), id)
	}
	b.log.Debug("Session disconnected", "session", id, "sessions", len(b.sessions))
}

func (b *Broker) send(id SessionID, room, text string) {
	if _, ok := b.sessions[id]; !ok {
		b.log.Debug("Send from unknown session", "session", id, "room", room)
		return
	}
	if _, ok := b.rooms[room]; !ok {
		b.log.Debug("Send to unknown room", "session", id, "room", room)
		return
	}
	b.broadcast(room, text, id)
}

func (b *Broker) join(id SessionID, room string) error {
	if _, ok := b.sessions[id]; !ok {
		b.log.Debug("Join from unknown session", "session", id, "room", room)
		return ErrUnknownSession
	}

	for _, vacated := range b.leaveAll(id) {
		b.broadcast(vacated, DisconnectedNotice(id), id)
	}

	members, ok := b.rooms[room]
	if !ok {
		members = make(map[SessionID]struct{})
		b.rooms[room] = members
		b.log.Debug("Room created", "room", room)
	}
	b.broadcast(room, ConnectedNotice(id), id)
	members[id] = struct{}{}

	b.log.Debug("Session joined room", "session", id, "room", room, "members", len(members))
	return nil
}

// leaveAll removes id from every room and returns the rooms it left.
func (b *Broker) leaveAll(id SessionID) []string {
	var vacated []string
	for name, members := range b.rooms {
		if _, ok := members[id]; ok {
			delete(members, id)
			vacated = append(vacated, name)
		}
	}
	return vacated
}

// broadcast delivers text to every member of room except skip. Failed
// deliveries are logged and dropped.
func (b *Broker) broadcast(room, text string, skip SessionID) {
	for id := range b.rooms[room] {
		if id == skip {
			continue
		}
		h, ok := b.sessions[id]
		if !ok {
			continue
		}
		if err := h.Deliver(text); err != nil {
			b.log.Warn("Delivery failed", "session", id, "room", room, "err", err)
		}
	}
}
