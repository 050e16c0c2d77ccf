package main

import (
	"github.com/Tyrowin/roomchat/internal/client"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newChatCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join the chat from the terminal",
		Long: `Connects to the server and sends every line typed on stdin.
Commands: /list, /join <room>, /name <display name>. End input or press Ctrl+C to leave.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if v.GetBool("no-color") {
				color.Disable()
			}
			log := logs.GetLoggerFromString(v.GetString("log-level"))

			c, err := client.Dial(cmd.Context(), v.GetString("url"), v.GetString("origin"), log)
			if err != nil {
				return err
			}
			return c.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("url", "ws://localhost:8080/ws", "WebSocket endpoint of the server")
	cmd.Flags().String("origin", "http://localhost:8080", "Origin header presented to the server")
	cmd.Flags().Bool("no-color", false, "print replies without colours")
	_ = v.BindPFlag("url", cmd.Flags().Lookup("url"))
	_ = v.BindPFlag("origin", cmd.Flags().Lookup("origin"))
	_ = v.BindPFlag("no-color", cmd.Flags().Lookup("no-color"))
	return cmd
}
