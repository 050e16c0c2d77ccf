package server

import (
	"fmt"
	"strings"

	"github.com/Tyrowin/roomchat/internal/broker"
)

const commandMarker = "/"

// CommandKind classifies an inbound text frame.
type CommandKind int

const (
	// CommandChat is plain text for the sender's current room.
	CommandChat CommandKind = iota
	// CommandList asks for the names of all rooms.
	CommandList
	// CommandJoin moves the sender to another room.
	CommandJoin
	// CommandName sets the sender's display name.
	CommandName
	// CommandUnknown is any other marker-prefixed text.
	CommandUnknown
)

func (k CommandKind) String() string {
	switch k {
	case CommandChat:
		return "chat"
	case CommandList:
		return "list"
	case CommandJoin:
		return "join"
	case CommandName:
		return "name"
	default:
		return "unknown"
	}
}

// Command is a parsed text frame. Text is the trimmed frame; Arg is
// everything after the first space of a command, kept verbatim.
type Command struct {
	Kind   CommandKind
	Text   string
	Arg    string
	HasArg bool
}

// ParseCommand trims frame and splits commands into their token and their
// single optional argument.
func ParseCommand(frame string) Command {
	text := strings.TrimSpace(frame)
	if !strings.HasPrefix(text, commandMarker) {
		return Command{Kind: CommandChat, Text: text}
	}

	token, arg, hasArg := strings.Cut(text, " ")
	cmd := Command{Text: text, Arg: arg, HasArg: hasArg && arg != ""}

	switch token {
	case "/list":
		cmd.Kind = CommandList
	case "/join":
		cmd.Kind = CommandJoin
	case "/name":
		cmd.Kind = CommandName
	default:
		cmd.Kind = CommandUnknown
	}
	return cmd
}

// Inline replies for usage errors.
const (
	RoomNameRequiredReply = "!!! room name is required"
	NameRequiredReply     = "!!! name is required"
)

// UnknownCommandReply answers a marker-prefixed frame no command matches.
func UnknownCommandReply(text string) string {
	return "!!! unknown command: " + text
}

// JoinedReply confirms a /join to the session that issued it.
func JoinedReply(id broker.SessionID) string {
	return fmt.Sprintf("user %s joined", id)
}

// ChatText prefixes text with the display name when one is set.
func ChatText(name, text string) string {
	if name == "" {
		return text
	}
	return name + ": " + text
}
