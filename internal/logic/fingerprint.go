package logic

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net"
)

// clientIDSalt is the fixed separator mixed into the client id hash,
// matching the original implementation's "advertising-client-id" label.
const clientIDSalt = "advertising-client-id"

// ClientID derives a stable per-(ip, ua) identifier:
// SHA256(secret ‖ "advertising-client-id" ‖ ip ‖ ua). When both ip and ua
// are empty, a fresh random value is hashed instead so sessions remain
// distinct (C1).
func ClientID(secret, ip, ua string) string {
	h := sha256.New()
	h.Write([]byte(secret))
	h.Write([]byte(clientIDSalt))
	if ip == "" && ua == "" {
		buf := make([]byte, 16)
		_, _ = rand.Read(buf)
		h.Write(buf)
	} else {
		h.Write([]byte(ip))
		h.Write([]byte(ua))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AnonymizeIP zeroes the low 16 bits of a v4 address, or the low 16 bits
// of a v6 interface id, before persistence (C2). Returns "" for an
// unparseable address.
func AnonymizeIP(ipString string) string {
	ip := net.ParseIP(ipString)
	if ip == nil {
		return ""
	}
	if v4 := ip.To4(); v4 != nil {
		out := make(net.IP, len(v4))
		copy(out, v4)
		out[2] = 0
		out[3] = 0
		return out.String()
	}
	v6 := ip.To16()
	if v6 == nil {
		return ""
	}
	out := make(net.IP, len(v6))
	copy(out, v6)
	out[14] = 0
	out[15] = 0
	return out.String()
}

// RareUserAgentSentinel is persisted in place of the raw UA string when
// the browser or OS family is unrecognized.
const RareUserAgentSentinel = "Rare user agent"

// PersistedUserAgent returns ua unless it's rare, in which case it
// returns the sentinel. When dropUA is true (do-not-track mode for
// non-click events) it always returns "".
func PersistedUserAgent(ua string, parsed ParsedUA, dropUA bool) string {
	if dropUA {
		return ""
	}
	if parsed.IsRareUserAgent() {
		return RareUserAgentSentinel
	}
	return ua
}
