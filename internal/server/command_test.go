package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Command
	}{
		{"plain text", "hi there", Command{Kind: CommandChat, Text: "hi there"}},
		{"trimmed text", "  hi there \n", Command{Kind: CommandChat, Text: "hi there"}},
		{"empty frame", "   ", Command{Kind: CommandChat, Text: ""}},
		{"list", "/list", Command{Kind: CommandList, Text: "/list"}},
		{"list ignores argument", "/list all", Command{Kind: CommandList, Text: "/list all", Arg: "all", HasArg: true}},
		{"join", "/join lobby", Command{Kind: CommandJoin, Text: "/join lobby", Arg: "lobby", HasArg: true}},
		{"join keeps spaces in argument", "/join the lobby", Command{Kind: CommandJoin, Text: "/join the lobby", Arg: "the lobby", HasArg: true}},
		{"join without argument", "/join", Command{Kind: CommandJoin, Text: "/join"}},
		{"name", "/name Ann", Command{Kind: CommandName, Text: "/name Ann", Arg: "Ann", HasArg: true}},
		{"name without argument", " /name ", Command{Kind: CommandName, Text: "/name"}},
		{"unknown", "/dance now", Command{Kind: CommandUnknown, Text: "/dance now", Arg: "now", HasArg: true}},
		{"bare marker", "/", Command{Kind: CommandUnknown, Text: "/"}},
		{"case sensitive", "/LIST", Command{Kind: CommandUnknown, Text: "/LIST"}},
		{"marker not first", "a /join b", Command{Kind: CommandChat, Text: "a /join b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseCommand(tt.frame))
		})
	}
}

func TestCommandReplies(t *testing.T) {
	require.Equal(t, "!!! unknown command: /dance", UnknownCommandReply("/dance"))
	require.Equal(t, "user abc joined", JoinedReply("abc"))
	require.Equal(t, "hello", ChatText("", "hello"))
	require.Equal(t, "Ann: hello", ChatText("Ann", "hello"))
	require.Equal(t, "join", CommandJoin.String())
}
