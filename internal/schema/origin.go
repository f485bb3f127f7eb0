package schema

import "strings"

// debugHosts are accepted as origins only when debug mode is on.
var debugHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
	"[::1]":     {},
}

// OriginPolicy decides whether a token-less request may be accepted based on
// its declared origin host.
type OriginPolicy struct {
	PrimaryDomain string
	DebugMode     bool
}

// Allowed reports whether host is the primary domain, a subdomain of it, or
// (in debug mode only) a local test host.
func (p OriginPolicy) Allowed(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	if host == p.PrimaryDomain || strings.HasSuffix(host, "."+p.PrimaryDomain) {
		return true
	}
	if p.DebugMode {
		_, ok := debugHosts[host]
		return ok
	}
	return false
}
