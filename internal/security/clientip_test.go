package security

import (
	"net/http/httptest"
	"testing"
)

func TestCanonicalIP(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ipv4", "192.0.2.1", "192.0.2.1"},
		{"ipv4 with port", "192.0.2.1:54321", "192.0.2.1"},
		{"ipv4 mapped", "::ffff:192.0.2.1", "192.0.2.1"},
		{"ipv4 mapped with port", "[::ffff:192.0.2.1]:80", "192.0.2.1"},
		{"ipv6", "2001:db8::1", "2001:db8::/56"},
		{"ipv6 bracketed", "[2001:db8::1]", "2001:db8::/56"},
		{"ipv6 with port", "[2001:db8::1]:8080", "2001:db8::/56"},
		{"ipv6 same /56", "2001:db8:0:ff:abcd::1", "2001:db8::/56"},
		{"ipv6 other /56", "2001:db8:0:1ff::1", "2001:db8:0:100::/56"},
		{"ipv6 expanded", "2001:0db8:0000:0000:0000:0000:0000:0001", "2001:db8::/56"},
		{"ipv6 zone", "fe80::1%eth0", "fe80::/56"},
		{"loopback", "::1", "::/56"},
		{"whitespace", "  192.0.2.1 ", "192.0.2.1"},
		{"empty", "", "unknown"},
		{"hostname", "example.com:80", "unknown"},
		{"garbage", "not-an-ip", "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalIP(tc.in); got != tc.want {
				t.Errorf("CanonicalIP(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "[2001:db8::42]:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")

	if got := ClientIP(r); got != "2001:db8::/56" {
		t.Errorf("ClientIP = %q, want the RemoteAddr network", got)
	}
}
