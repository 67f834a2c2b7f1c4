package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ysxemail003-cpu/ipv6conf/internal/ui"
	"github.com/ysxemail003-cpu/ipv6conf/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "ipv6conf",
	Short:   "IPv6-first video conferencing over WebRTC mesh",
	Long:    `ipv6conf is a terminal client for IPv6-only video conferences. Peers discover each other through a lightweight room directory and negotiate direct WebRTC links in a full mesh, so media never transits the server. The same binary also runs the conference server.`,
	Version: version.Version,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("server", "", "conference server (host:port)")
	pf.Bool("tls", false, "use https/wss to reach the server")
	pf.String("stun", "", "STUN server URL")
	pf.String("turn", "", "TURN server host")
	pf.String("turn-user", "", "TURN username")
	pf.String("turn-pass", "", "TURN password")
	pf.Bool("force-relay", false, "restrict ICE to relayed candidates")
	pf.String("identity-file", "", "path to the persistent user identity")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
