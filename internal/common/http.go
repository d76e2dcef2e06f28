package common

import (
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the address a request came from: the first hop of
// X-Forwarded-For, then X-Real-IP, then the socket peer. Header values that
// are not IP addresses are skipped, so they never become log fields or rate
// limit keys.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); first != "" {
		if ip, ok := parseIP(first); ok {
			return ip
		}
	}
	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	if peer, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return peer.Addr().Unmap().String()
	}
	// chi's RealIP middleware stores a bare address without a port.
	if ip, ok := parseIP(r.RemoteAddr); ok {
		return ip
	}
	return ""
}

func parseIP(value string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(value))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
