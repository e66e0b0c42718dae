package cloudflare

import (
	"net"
	"net/netip"
	"strings"
)

// parseAddr extracts an IP address from the literal forms seen at the
// request boundary:
//
//   - surrounding whitespace: "  198.51.100.9  "
//   - port suffixes from RemoteAddr: "198.51.100.9:443" or "[::1]:443"
//   - bare IPv6 brackets: "[2001:db8::1]"
//
// Returns an invalid netip.Addr (IsValid() == false) when parsing fails;
// callers treat invalid addresses as fail-closed non-members.
func parseAddr(s string) netip.Addr {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}

	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		s = s[1 : len(s)-1]
	}

	ip, _ := netip.ParseAddr(s)
	return ip
}

func normalizeAddr(ip netip.Addr) netip.Addr {
	if ip.Is4In6() {
		return ip.Unmap()
	}
	return ip
}
