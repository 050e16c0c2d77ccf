package server

import (
	"sync"

	"github.com/Tyrowin/roomchat/internal/broker"
)

// outbox is the broker.Handle of a Session. The broker enqueues into it
// without blocking and the session's loop drains it onto the socket.
type outbox struct {
	queue  chan string
	closed chan struct{}
	once   sync.Once
}

func newOutbox(size int) *outbox {
	return &outbox{
		queue:  make(chan string, size),
		closed: make(chan struct{}),
	}
}

// Deliver implements broker.Handle.
func (o *outbox) Deliver(text string) error {
	select {
	case <-o.closed:
		return broker.ErrHandleClosed
	default:
	}

	select {
	case o.queue <- text:
		return nil
	default:
		return broker.ErrSendBufferFull
	}
}

func (o *outbox) close() {
	o.once.Do(func() {
		close(o.closed)
	})
}
