package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join <room-id>",
	Short: "Join an existing conference room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := NewConnectionContext(cmd)
		if err != nil {
			return err
		}
		defer ctx.Close()

		roomID := args[0]
		return ctx.runConference(func(runCtx context.Context) (string, error) {
			if err := ctx.Engine.JoinRoom(runCtx, roomID); err != nil {
				return "", err
			}
			return roomID, nil
		})
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}
