package version

// Version is the current version of the ipv6conf CLI.
// This value can be overridden at build time using:
//   go build -ldflags="-X 'github.com/ysxemail003-cpu/ipv6conf/internal/version.Version=v1.0.0'"
var Version = "dev"
