package security

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ipv6KeyBits is the prefix an IPv6 client is keyed by. Hosts inside one
// customer allocation share a key.
const ipv6KeyBits = 56

const unknownClient = "unknown"

// ClientIP returns the canonical client key for r, taken from r.RemoteAddr.
// Proxy headers are only honored when an earlier middleware rewrote
// RemoteAddr from them.
func ClientIP(r *http.Request) string {
	return CanonicalIP(r.RemoteAddr)
}

// CanonicalIP normalizes an address so that equivalent spellings map to the
// same key. A port and an IPv6 zone are dropped, IPv4-mapped IPv6 addresses
// become plain IPv4, and IPv6 addresses collapse to their /56 network.
func CanonicalIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownClient
	}

	host := raw
	if h, _, err := net.SplitHostPort(raw); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return unknownClient
	}
	addr = addr.WithZone("").Unmap()

	if addr.Is4() {
		return addr.String()
	}

	prefix, err := addr.Prefix(ipv6KeyBits)
	if err != nil {
		return unknownClient
	}
	return prefix.String()
}
