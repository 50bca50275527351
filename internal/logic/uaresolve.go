// Package logic implements the decision pipeline's non-selector stages:
// UA/geo resolution, fingerprinting, targeting filters and pacing math.
package logic

import (
	"net"
	"net/http"
	"strings"

	"github.com/avct/uasurfer"

	"github.com/adserve/core/internal/geoip"
	"github.com/adserve/core/internal/models"
)

// ParsedUA is the normalized output of UA parsing (C1). Failures to parse
// are treated as unrecognized, per spec.md §9's substitutability note.
type ParsedUA struct {
	Browser  string
	OS       string
	IsBot    bool
	IsMobile bool
}

// ParseUA parses a raw User-Agent header via uasurfer. uasurfer's name
// strings carry a "Browser"/"OS" prefix ("BrowserChrome", "OSUnknown");
// the prefix is dropped so families read "Chrome", "Windows", "Unknown".
func ParseUA(ua string) ParsedUA {
	u := uasurfer.Parse(ua)
	return ParsedUA{
		Browser:  strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		OS:       strings.TrimPrefix(u.OS.Name.String(), "OS"),
		IsBot:    u.IsBot(),
		IsMobile: u.DeviceType == uasurfer.DevicePhone || u.DeviceType == uasurfer.DeviceTablet,
	}
}

// IsRareUserAgent reports whether the parsed UA has an unknown browser or
// OS family, which callers persist as the sentinel "Rare user agent"
// instead of the raw string (C2).
func (p ParsedUA) IsRareUserAgent() bool {
	return p.Browser == "" || p.Browser == "Unknown" || p.OS == "" || p.OS == "Unknown"
}

// ClientIP extracts the first address from a comma-separated
// X-Forwarded-For header, falling back to the request's RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host
}

// ResolveGeo looks up country, region and metro for an IP string. A
// GeoIP lookup failure (nil result or parse failure) degrades to empty
// values rather than an error, per spec.md §7.
func ResolveGeo(g *geoip.GeoIP, ipString string) (country, region string, metro int) {
	ip := net.ParseIP(ipString)
	if ip == nil || g == nil {
		return "", "", 0
	}
	return g.Country(ip), g.Region(ip), g.Metro(ip)
}

// BuildTargetingContext assembles a TargetingContext from a resolved
// geo/UA pair plus request-level fields. Callers fill in the
// publisher/forced-ad/campaign-type fields after resolution.
func BuildTargetingContext(country, region string, metro int, ua ParsedUA) models.TargetingContext {
	return models.TargetingContext{
		Country:  country,
		Region:   region,
		Metro:    metro,
		IsMobile: ua.IsMobile,
		IsBot:    ua.IsBot,
		Browser:  ua.Browser,
		OS:       ua.OS,
	}
}
