package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ysxemail003-cpu/ipv6conf/internal/api"
	"github.com/ysxemail003-cpu/ipv6conf/internal/ui"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List active conference rooms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rooms, err := api.NewClient(cfg.HTTPBaseURL()).Rooms(ctx)
		if err != nil {
			return err
		}
		ui.RenderRoomsTable(rooms)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)
}
