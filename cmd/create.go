package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ysxemail003-cpu/ipv6conf/internal/ui"
)

var createCmd = &cobra.Command{
	Use:   "create [room-id]",
	Short: "Create a conference room and wait for peers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := NewConnectionContext(cmd)
		if err != nil {
			return err
		}
		defer ctx.Close()

		var requested string
		if len(args) > 0 {
			requested = args[0]
		}
		return ctx.runConference(func(runCtx context.Context) (string, error) {
			roomID, err := ctx.Engine.CreateRoom(runCtx, requested)
			if err != nil {
				return "", err
			}
			fmt.Println(ui.RoomBanner(roomID, ctx.Config.Server))
			return roomID, nil
		})
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
