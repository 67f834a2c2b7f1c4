package main

import (
	"github.com/ysxemail003-cpu/ipv6conf/cmd"
	"github.com/ysxemail003-cpu/ipv6conf/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
