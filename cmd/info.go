package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ysxemail003-cpu/ipv6conf/internal/api"
	"github.com/ysxemail003-cpu/ipv6conf/internal/ui"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Probe the conference server's IPv6 reachability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		start := time.Now()
		info, err := api.NewClient(cfg.HTTPBaseURL()).ServerInfo(ctx)
		if err != nil {
			return err
		}
		fmt.Println(ui.ServerInfoView(info, time.Since(start)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
