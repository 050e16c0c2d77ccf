package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "ROOMCHAT"

// newRootCmd builds the roomchat command tree. Running it without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "roomchat",
		Short:         "Room based WebSocket chat server and terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.PersistentFlags().String("log-level", "INFO", "log level of the client commands (DEBUG, INFO, WARN, ERROR)")
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(serve, newChatCmd(v), newRoomsCmd(v))
	return root
}
