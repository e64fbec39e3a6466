package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// ClientIPKey is the context key for the resolved client address.
const ClientIPKey contextKey = "client_ip"

// ClientAddr resolves the client address once and stores it in the request
// context for the limiters and the request log. CF-Connecting-IP is honored
// only when trustCF is set, which must be the case only when the server is
// reachable solely through Cloudflare. Otherwise the header is as forgeable
// as X-Forwarded-For, which is never consulted.
func ClientAddr(trustCF bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteHost(r)
			if trustCF {
				if cf := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cf != "" && net.ParseIP(cf) != nil {
					ip = cf
				}
			}
			ctx := context.WithValue(r.Context(), ClientIPKey, ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the address used to key per-client limits. Without
// ClientAddr in the chain it falls back to the connection's RemoteAddr.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(ClientIPKey).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
