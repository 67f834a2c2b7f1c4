package relay

import (
	"context"
	"net"
	"os"
	"strings"
)

// DetectAddress picks the IPv6 address the server should advertise.
// Preference order: global address, then link-local, then loopback.
func DetectAddress() string {
	var addrs []string

	if host, err := os.Hostname(); err == nil {
		if ips, err := net.LookupIP(host); err == nil {
			for _, ip := range ips {
				if ip.To4() == nil && ip.To16() != nil {
					addrs = append(addrs, ip.String())
				}
			}
		}
	}
	if ifAddrs, err := net.InterfaceAddrs(); err == nil {
		for _, a := range ifAddrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ip := ipNet.IP; ip.To4() == nil && ip.To16() != nil {
				addrs = append(addrs, ip.String())
			}
		}
	}

	for _, a := range addrs {
		if !strings.HasPrefix(a, "fe80:") && a != "::1" {
			return a
		}
	}
	for _, a := range addrs {
		if strings.HasPrefix(a, "fe80:") {
			return a
		}
	}
	return "::1"
}

// Available reports whether the host can resolve an outside name over
// IPv6. Used by the status endpoint, never as a gate.
func Available(ctx context.Context) bool {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip6", "ipv6.google.com")
	return err == nil && len(ips) > 0
}
