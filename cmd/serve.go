package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ysxemail003-cpu/ipv6conf/internal/relay"
)

var (
	serveListen string
	servePort   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conference server (room directory and signaling relay)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := fmt.Sprintf("%s:%d", serveListen, servePort)
		return relay.NewServer(addr, servePort).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "[::]", "listen address")
	serveCmd.Flags().IntVar(&servePort, "port", 5000, "listen port")
	rootCmd.AddCommand(serveCmd)
}
