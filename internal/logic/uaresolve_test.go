package logic

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP_PrefersXForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	r.RemoteAddr = "127.0.0.1:1234"
	assert.Equal(t, "9.9.9.9", ClientIP(r))
}

func TestClientIP_FallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	assert.Equal(t, "203.0.113.7", ClientIP(r))
}

func TestResolveGeo_NilGeoIPDegradesEmpty(t *testing.T) {
	country, region, metro := ResolveGeo(nil, "203.0.113.7")
	assert.Equal(t, "", country)
	assert.Equal(t, "", region)
	assert.Equal(t, 0, metro)
}

func TestResolveGeo_UnparseableIPDegradesEmpty(t *testing.T) {
	country, region, metro := ResolveGeo(nil, "not-an-ip")
	assert.Equal(t, "", country)
	assert.Equal(t, "", region)
	assert.Equal(t, 0, metro)
}

func TestParsedUA_IsRareUserAgent(t *testing.T) {
	assert.True(t, ParsedUA{Browser: "Unknown", OS: "Windows"}.IsRareUserAgent())
	assert.True(t, ParsedUA{Browser: "Chrome", OS: ""}.IsRareUserAgent())
	assert.False(t, ParsedUA{Browser: "Chrome", OS: "Windows"}.IsRareUserAgent())
}

func TestBuildTargetingContext(t *testing.T) {
	ctx := BuildTargetingContext("US", "CA", 807, ParsedUA{Browser: "Chrome", OS: "Windows", IsMobile: true, IsBot: false})
	assert.Equal(t, "US", ctx.Country)
	assert.Equal(t, "CA", ctx.Region)
	assert.Equal(t, 807, ctx.Metro)
	assert.True(t, ctx.IsMobile)
	assert.Equal(t, "Chrome", ctx.Browser)
}
