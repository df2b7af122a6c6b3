package dbcapabilities

import (
	"net"
	"strings"
)

const localhost = "localhost"

// NormalizeHost lowercases host and folds every loopback spelling
// ("localhost", "app.localhost", 127.0.0.0/8, "::1", "[::1]") into "localhost".
// No DNS lookups are made.
func NormalizeHost(host string) string {
	h := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if h == localhost || strings.HasSuffix(h, "."+localhost) {
		return localhost
	}
	if ip := net.ParseIP(strings.Trim(h, "[]")); ip != nil && ip.IsLoopback() {
		return localhost
	}
	return h
}

// IsLocalhostVariant reports whether host names the local machine.
func IsLocalhostVariant(host string) bool {
	return NormalizeHost(host) == localhost
}
