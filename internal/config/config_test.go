package config

import "testing"

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("IPV6CONF_SERVER", "env.example.com:5000")
	t.Setenv("IPV6CONF_IDENTITY_FILE", "/tmp/id")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "env.example.com:5000" {
		t.Errorf("Server = %q, want env value", cfg.Server)
	}

	cfg, err = Load(Options{Server: "flag.example.com:6000"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "flag.example.com:6000" {
		t.Errorf("Server = %q, want flag value to win over env", cfg.Server)
	}
}

func TestURLs(t *testing.T) {
	cfg := &Config{Server: "example.com:5000"}
	if got := cfg.HTTPBaseURL(); got != "http://example.com:5000" {
		t.Errorf("HTTPBaseURL = %q", got)
	}
	if got := cfg.WebSocketURL(); got != "ws://example.com:5000/ws" {
		t.Errorf("WebSocketURL = %q", got)
	}

	cfg.TLS = true
	if got := cfg.HTTPBaseURL(); got != "https://example.com:5000" {
		t.Errorf("HTTPBaseURL (tls) = %q", got)
	}
	if got := cfg.WebSocketURL(); got != "wss://example.com:5000/ws" {
		t.Errorf("WebSocketURL (tls) = %q", got)
	}
}

func TestSTUNServers(t *testing.T) {
	cfg := &Config{STUNServer: DefaultSTUNv6}
	if got := cfg.GetSTUNServers(); len(got) != 2 {
		t.Errorf("default STUN set = %v, want IPv6 literal plus hostname fallback", got)
	}

	cfg.STUNServer = "stun:custom.example.com:3478"
	got := cfg.GetSTUNServers()
	if len(got) != 1 || got[0] != "stun:custom.example.com:3478" {
		t.Errorf("custom STUN set = %v", got)
	}
}

func TestTURNServers(t *testing.T) {
	cfg := &Config{}
	if cfg.GetTURNServers() != nil {
		t.Error("expected nil TURN servers when unconfigured")
	}

	cfg.TURNServer = "turn:relay.example.com"
	if got := cfg.GetTURNServers(); len(got) != 3 {
		t.Errorf("TURN URLs = %v, want udp/tcp/turns triple", got)
	}
}
