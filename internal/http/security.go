package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyNets lists the networks allowed to set forwarding headers.
// Forwarded IPs from anywhere else are ignored so clients cannot spoof
// their way past the rate limiter.
var proxyNets = func() []netip.Prefix {
	cidrs := []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
	}
	nets := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		nets = append(nets, netip.MustParsePrefix(c))
	}
	return nets
}()

func fromTrustedProxy(addr netip.Addr) bool {
	for _, p := range proxyNets {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// extractClientIP resolves the originating client IP. X-Forwarded-For
// and X-Real-IP are honored only when the direct peer is a trusted
// proxy.
func extractClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil || !fromTrustedProxy(addr) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if _, err := netip.ParseAddr(first); err == nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}
	return peer
}

// setSecurityHeaders applies the standard hardening headers to a JSON
// API response.
func setSecurityHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
}
