package broker

import "fmt"

// MainRoom exists from construction and is never removed.
const MainRoom = "Main"

// JoinedMainNotice is sent to members of MainRoom when a session connects.
func JoinedMainNotice(id SessionID) string {
	return fmt.Sprintf("user %s joined the %s room", id, MainRoom)
}

// DisconnectedNotice is sent to the remaining members of a room a session
// left, either by disconnecting or by joining another room.
func DisconnectedNotice(id SessionID) string {
	return fmt.Sprintf("user %s disconnected", id)
}

// ConnectedNotice is sent to the members of a room a session joins.
func ConnectedNotice(id SessionID) string {
	return fmt.Sprintf("user %s connected", id)
}
