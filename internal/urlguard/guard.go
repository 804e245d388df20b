// Package urlguard validates user-submitted URLs before the service makes any
// outbound request on their behalf.
//
// The guard is purely syntactic: it parses the URL, lowercases the host and
// rejects loopback, private and link-local IPv4 literals plus the localhost
// names. It performs no DNS resolution, so a public hostname that resolves to
// a private address is NOT caught here.
package urlguard

import (
	"errors"
	"net/netip"
	"net/url"
	"strings"
)

var (
	// ErrMissingURL is returned for an empty or whitespace-only input.
	ErrMissingURL = errors.New("missing URL")

	// ErrInvalidURL is returned when the input is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrBlockedTarget is returned when the host is loopback, private or
	// link-local.
	ErrBlockedTarget = errors.New("blocked for security reasons")
)

// blockedPrefixes are the IPv4 ranges that must never be fetched.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

// Check parses raw and returns the URL when it is safe to fetch.
//
// Errors:
//   - ErrMissingURL for "" (after trimming)
//   - ErrInvalidURL when parsing fails, the URL is relative, has no host, or
//     the scheme is not http/https
//   - ErrBlockedTarget for localhost, *.localhost, and blocked IPv4 literals
func Check(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingURL
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return nil, ErrInvalidURL
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, ErrInvalidURL
	}

	if IsBlockedHost(u.Hostname()) {
		return nil, ErrBlockedTarget
	}
	return u, nil
}

// IsBlockedHost reports whether host (without port) names a target the
// service refuses to contact.
func IsBlockedHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		// Plain hostname; see package doc.
		return false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() {
		return true
	}
	if !addr.Is4() {
		return false
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
