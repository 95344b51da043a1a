// Package clientip resolves the address used as the rate limiting key.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the peer address of r without the port. Forwarding
// headers are ignored since they are client controlled when nothing sits in
// front of the server.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
