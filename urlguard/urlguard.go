// Package urlguard normalizes and validates submission URLs before they are
// fetched: scheme defaulting, host presence, and SSRF checks against
// private/loopback address ranges.
package urlguard

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrNoHost is returned when a URL parses but resolves no domain.
var ErrNoHost = errors.New("urlguard: no domain found in URL")

// ErrUnsafeScheme is returned for non-HTTP(S) schemes.
var ErrUnsafeScheme = errors.New("urlguard: only http and https schemes are allowed")

// ErrPrivateAddress is returned when a URL targets a private or loopback
// address.
var ErrPrivateAddress = errors.New("urlguard: URL targets a private or loopback address")

// Normalize prefixes https:// when raw carries no scheme and returns the
// URL string plus its host. Fails with ErrNoHost when no domain resolves.
func Normalize(raw string) (normalized, host string, err error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("urlguard: parse: %w", err)
	}
	if u.Host == "" {
		return "", "", ErrNoHost
	}
	return raw, u.Host, nil
}

// Validate checks scheme and, via DNS where needed, that the target is not a
// private or loopback address. Used as the fetcher's pre-flight hook; tests
// and internal deployments may substitute their own validator.
func Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("urlguard: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	host := u.Hostname()
	if host == "" {
		return ErrNoHost
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivate(ip) {
			return ErrPrivateAddress
		}
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		// Unresolvable now may still be a valid external host; the fetch
		// itself will surface the network error.
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivate(ip) {
			return ErrPrivateAddress
		}
	}
	return nil
}

var privateCIDRs = mustCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"fc00::/7",
	"::1/128",
)

func isPrivate(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

func mustCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, b := range blocks {
		_, cidr, err := net.ParseCIDR(b)
		if err != nil {
			panic(err)
		}
		nets = append(nets, cidr)
	}
	return nets
}
