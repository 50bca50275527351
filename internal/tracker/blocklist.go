package tracker

import (
	"net"
	"regexp"
)

// Blocklists holds the compiled regex/CIDR sets checked against view and
// click traffic (spec.md §4.7 rule 2/3). cmd/server builds one
// Blocklists at startup; no reload replaces it while the process runs.
type Blocklists struct {
	ips        []*net.IPNet
	uaPatterns []*regexp.Regexp
	refPattern []*regexp.Regexp
}

// NewBlocklists compiles the configured CIDR/regex lists. Malformed
// entries are skipped rather than failing the whole set, since a bad
// config line shouldn't take down event billing entirely.
func NewBlocklists(cidrs, uaRegexes, referrerRegexes []string) *Blocklists {
	b := &Blocklists{}
	for _, c := range cidrs {
		if _, n, err := net.ParseCIDR(c); err == nil {
			b.ips = append(b.ips, n)
		}
	}
	for _, p := range uaRegexes {
		if re, err := regexp.Compile(p); err == nil {
			b.uaPatterns = append(b.uaPatterns, re)
		}
	}
	for _, p := range referrerRegexes {
		if re, err := regexp.Compile(p); err == nil {
			b.refPattern = append(b.refPattern, re)
		}
	}
	return b
}

// IsBlockedIP reports whether ip matches a configured blocked CIDR.
func (b *Blocklists) IsBlockedIP(ip string) bool {
	if b == nil {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range b.ips {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// IsBlockedUA reports whether ua matches a configured blocked pattern.
func (b *Blocklists) IsBlockedUA(ua string) bool {
	if b == nil {
		return false
	}
	for _, re := range b.uaPatterns {
		if re.MatchString(ua) {
			return true
		}
	}
	return false
}

// IsBlockedReferrer reports whether referrer matches a configured
// blocked pattern.
func (b *Blocklists) IsBlockedReferrer(referrer string) bool {
	if b == nil || referrer == "" {
		return false
	}
	for _, re := range b.refPattern {
		if re.MatchString(referrer) {
			return true
		}
	}
	return false
}

// privateNets are the RFC 1918 / RFC 4193 / loopback ranges treated as
// "Internal IP" (spec.md §4.7 rule 2), checked independent of any
// publisher-configured blocklist.
var privateNets = func() []*net.IPNet {
	var nets []*net.IPNet
	for _, c := range []string{
		"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
		"::1/128", "fc00::/7",
	} {
		_, n, _ := net.ParseCIDR(c)
		nets = append(nets, n)
	}
	return nets
}()

// IsInternalIP reports whether ip falls in a private/loopback range.
func IsInternalIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range privateNets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}
