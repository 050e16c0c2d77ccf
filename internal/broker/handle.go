package broker

import "github.com/google/uuid"

//go:generate mockgen -source=handle.go -destination=mocks/mock_handle.go -package=mocks

// Handle delivers text to one remote connection. The Broker calls Deliver
// from its own goroutine, so implementations must not block: they enqueue
// the text and return ErrSendBufferFull or ErrHandleClosed when they cannot.
type Handle interface {
	Deliver(text string) error
}

// SessionID identifies a registered session. It is opaque to clients.
type SessionID string

func (id SessionID) String() string {
	return string(id)
}

// IDGenerator draws candidate session identifiers. The Broker re-draws until
// the candidate is not already registered.
type IDGenerator func() SessionID

// NewUUID returns a random UUID identifier.
func NewUUID() SessionID {
	return SessionID(uuid.NewString())
}
