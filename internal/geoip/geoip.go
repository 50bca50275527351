// Package geoip resolves client IPs to country/region/metro using a
// MaxMind GeoIP2 database, with a JSON CIDR table as fallback.
package geoip

import (
	"encoding/json"
	"net"
	"os"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP provides country/region/metro lookup using a MaxMind DB or a JSON
// fallback table.
type GeoIP struct {
	db       *geoip2.Reader
	fallback []record
}

type record struct {
	net     *net.IPNet
	country string
	region  string
	metro   int
}

// Init opens the GeoIP2 database located at path, falling back to a JSON
// CIDR table if the file isn't a valid MaxMind DB. The returned error
// indicates problems opening either form.
func Init(path string) (*GeoIP, error) {
	g := &GeoIP{}
	db, err := geoip2.Open(path)
	if err == nil {
		g.db = db
		return g, nil
	}

	data, jerr := os.ReadFile(path)
	if jerr != nil {
		return nil, err
	}
	var entries []struct {
		Net     string `json:"net"`
		Country string `json:"country"`
		Region  string `json:"region"`
		Metro   int    `json:"metro"`
	}
	if jerr = json.Unmarshal(data, &entries); jerr != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, n, perr := net.ParseCIDR(e.Net); perr == nil {
			g.fallback = append(g.fallback, record{net: n, country: e.Country, region: e.Region, metro: e.Metro})
		}
	}
	return g, nil
}

// Country returns the ISO country code for ip, or "" on lookup failure —
// callers degrade to unrestricted targeting rather than treating this as
// an error (spec §7, infrastructure degradation).
func (g *GeoIP) Country(ip net.IP) string {
	if g == nil || ip == nil {
		return ""
	}
	if g.db != nil {
		rec, err := g.db.Country(ip)
		if err == nil {
			return rec.Country.IsoCode
		}
	}
	for _, r := range g.fallback {
		if r.net.Contains(ip) {
			return r.country
		}
	}
	return ""
}

// Region returns the region/subdivision code for ip, or "".
func (g *GeoIP) Region(ip net.IP) string {
	if g == nil || ip == nil {
		return ""
	}
	if g.db != nil {
		rec, err := g.db.City(ip)
		if err == nil && len(rec.Subdivisions) > 0 {
			return rec.Subdivisions[0].IsoCode
		}
	}
	for _, r := range g.fallback {
		if r.net.Contains(ip) {
			return r.region
		}
	}
	return ""
}

// Metro returns the metro code for ip, or 0 if unavailable.
func (g *GeoIP) Metro(ip net.IP) int {
	if g == nil || ip == nil {
		return 0
	}
	if g.db != nil {
		rec, err := g.db.City(ip)
		if err == nil {
			return int(rec.Location.MetroCode)
		}
	}
	for _, r := range g.fallback {
		if r.net.Contains(ip) {
			return r.metro
		}
	}
	return 0
}

// Close releases resources associated with the database.
func (g *GeoIP) Close() error {
	if g != nil && g.db != nil {
		return g.db.Close()
	}
	return nil
}
