// Package server defines shared payload types and utility helpers that are
// reused across session and handler logic.
package server

import (
	"strings"

	"github.com/Tyrowin/roomchat/internal/broker"
)

// RoomInfo describes one room in the /rooms response.
type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// RoomsResponse is the JSON body served by /rooms.
type RoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

// StatsResponse is the JSON body served by /stats. Process is omitted when
// the process metrics cannot be read.
type StatsResponse struct {
	broker.Stats
	Process *ProcessStats `json:"process,omitempty"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
