package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default configuration values
const (
	DefaultServer = "localhost:5000"

	// IPv6-first STUN set: Google's IPv6 literal first, hostname fallback second.
	DefaultSTUNv6 = "stun:[2001:4860:4860::8888]:19302"
	DefaultSTUN   = "stun:stun.l.google.com:19302"
)

// Config holds application configuration
type Config struct {
	// Server is the conference server in host:port form.
	Server string

	// TLS selects https/wss URLs for the server.
	TLS bool

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// ForceRelay restricts ICE to relayed (TURN) candidates.
	ForceRelay bool

	// IdentityFile is where the persistent user identifier lives.
	IdentityFile string
}

// Options for loading config with CLI flag overrides
type Options struct {
	Server       string
	TLS          bool
	STUNServer   string
	TURNServer   string
	TURNUser     string
	TURNPass     string
	ForceRelay   bool
	IdentityFile string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	server := opts.Server
	if server == "" {
		server = os.Getenv("IPV6CONF_SERVER")
	}
	if server == "" {
		server = DefaultServer
	}

	stunServer := opts.STUNServer
	if stunServer == "" {
		stunServer = os.Getenv("STUN_SERVER")
	}
	if stunServer == "" {
		stunServer = DefaultSTUNv6
	}

	turnServer := opts.TURNServer
	if turnServer == "" {
		turnServer = os.Getenv("TURN_SERVER")
	}

	turnUser := opts.TURNUser
	if turnUser == "" {
		turnUser = os.Getenv("TURN_USERNAME")
	}

	turnPass := opts.TURNPass
	if turnPass == "" {
		turnPass = os.Getenv("TURN_PASSWORD")
	}

	identityFile := opts.IdentityFile
	if identityFile == "" {
		identityFile = os.Getenv("IPV6CONF_IDENTITY_FILE")
	}
	if identityFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve identity path: %w", err)
		}
		identityFile = filepath.Join(dir, "ipv6conf", "user_id")
	}

	return &Config{
		Server:       server,
		TLS:          opts.TLS || os.Getenv("IPV6CONF_TLS") == "true",
		STUNServer:   stunServer,
		TURNServer:   turnServer,
		TURNUser:     turnUser,
		TURNPass:     turnPass,
		ForceRelay:   opts.ForceRelay,
		IdentityFile: identityFile,
	}, nil
}

// HTTPBaseURL returns the base URL of the conference server's REST API.
func (c *Config) HTTPBaseURL() string {
	if c.TLS {
		return fmt.Sprintf("https://%s", c.Server)
	}
	return fmt.Sprintf("http://%s", c.Server)
}

// WebSocketURL returns the relay channel endpoint.
func (c *Config) WebSocketURL() string {
	if c.TLS {
		return fmt.Sprintf("wss://%s/ws", c.Server)
	}
	return fmt.Sprintf("ws://%s/ws", c.Server)
}

// GetSTUNServers returns STUN server URLs as strings. The hostname
// fallback is kept behind the IPv6 literal so dual-stack hosts still
// gather server-reflexive candidates when IPv6 is down.
func (c *Config) GetSTUNServers() []string {
	if c.STUNServer != DefaultSTUNv6 {
		return []string{c.STUNServer}
	}
	return []string{DefaultSTUNv6, DefaultSTUN}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
		fmt.Sprintf("turns:%s:5349?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
