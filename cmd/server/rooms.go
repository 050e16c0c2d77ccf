package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Tyrowin/roomchat/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const roomsTimeout = 10 * time.Second

func newRoomsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List the rooms of a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), roomsTimeout)
			defer cancel()

			rooms, err := client.FetchRooms(ctx, http.DefaultClient, v.GetString("server"))
			if err != nil {
				return err
			}
			client.RenderRooms(cmd.OutOrStdout(), rooms)
			return nil
		},
	}

	cmd.Flags().String("server", "http://localhost:8080", "base HTTP URL of the server")
	_ = v.BindPFlag("server", cmd.Flags().Lookup("server"))
	return cmd
}
