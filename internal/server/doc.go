// Package server implements the HTTP and WebSocket side of the chat service.
//
// The implementation is organized into specialized files for configuration,
// sessions, the command grammar, routing, and HTTP handlers. Room and session
// state lives in package broker; this package only talks to it through the
// Coordinator interface and the broker.Handle each session registers.
package server
