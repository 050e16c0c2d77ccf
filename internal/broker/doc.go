// Package broker coordinates chat sessions and rooms.
//
// A single Broker goroutine owns the session registry and the room directory.
// Connection sessions never touch that state directly: every operation is a
// command sent over the Broker's queue and applied one at a time, in arrival
// order. Connect, Join, ListRooms, Stats and Snapshot wait for a reply;
// Disconnect and Send do not.
package broker
