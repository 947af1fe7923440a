package security

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	"debts/internal/log"
)

// LocalGuard rejects requests that did not come from this machine. The
// server already binds a loopback address; the Host check also stops pages
// on other origins from reaching it through DNS rebinding.
type LocalGuard struct {
	rejected atomic.Int64
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{}
}

// Middleware returns the HTTP middleware function
func (g *LocalGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsLoopbackAddr(r.RemoteAddr) || !isLocalHost(r.Host) {
			g.rejected.Add(1)
			slog.WarnContext(r.Context(), "Rejected non-local request",
				log.FieldComponent, log.ComponentSecurity,
				"remote_addr", r.RemoteAddr,
				"host", r.Host)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Rejected returns how many requests were refused.
func (g *LocalGuard) Rejected() int64 {
	return g.rejected.Load()
}

// ClientIP returns the peer address without its port. Forwarding headers are
// ignored since nothing sits in front of the server.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IsLoopbackAddr reports whether a host or host:port names a loopback peer.
func IsLoopbackAddr(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func isLocalHost(host string) bool {
	if host == "" {
		return true
	}
	return IsLoopbackAddr(strings.ToLower(host))
}
