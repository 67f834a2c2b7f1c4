package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// publicDNS are the resolvers raced when the system lookup fails. IPv6
// transports are listed first; the conference server is expected to be
// reachable over IPv6.
var publicDNS = []string{
	"2606:4700:4700::1111", // Cloudflare
	"2001:4860:4860::8888", // Google
	"2620:fe::fe",          // Quad9
	"1.1.1.1",              // Cloudflare
	"8.8.8.8",              // Google
	"9.9.9.9",              // Quad9
}

// Lookup resolves a hostname, preferring IPv6 addresses. It tries the
// system resolver first and falls back to racing public resolvers.
func Lookup(host string) (string, error) {
	ip, err := localLookupIP(host)
	if err == nil && ip != "" {
		return ip, nil
	}
	return remoteLookupWithRace(host)
}

// localLookupIP resolves host through the system resolver.
func localLookupIP(host string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	r := &net.Resolver{}
	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	return pickIPv6First(ips)
}

// remoteLookupWithRace races the public resolvers and returns the first
// successful answer.
func remoteLookupWithRace(host string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	results := make(chan result, len(publicDNS))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, server := range publicDNS {
		go func(server string) {
			ip, err := remoteLookupIP(ctx, host, server)
			results <- result{ip: ip, err: err}
		}(server)
	}

	failures := 0
	for range publicDNS {
		select {
		case res := <-results:
			if res.err == nil && res.ip != "" {
				return res.ip, nil
			}
			failures++
		case <-ctx.Done():
			return "", errors.New("dns lookup timed out during public resolver race")
		}
	}

	return "", fmt.Errorf("failed to resolve %s: all %d public resolvers failed", host, failures)
}

// remoteLookupIP queries a specific resolver for host.
func remoteLookupIP(ctx context.Context, host, server string) (string, error) {
	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := new(net.Dialer)
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		},
	}

	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	return pickIPv6First(ips)
}

func pickIPv6First(ips []string) (string, error) {
	if len(ips) == 0 {
		return "", errors.New("no IP addresses found")
	}
	for _, ip := range ips {
		parsed := net.ParseIP(ip)
		if parsed != nil && parsed.To4() == nil {
			return ip, nil
		}
	}
	return ips[0], nil
}
