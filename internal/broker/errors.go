package broker

import "errors"

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrBrokerStopped  = errors.New("broker stopped")
	ErrSendBufferFull = errors.New("send buffer full")
	ErrHandleClosed   = errors.New("handle closed")
)
