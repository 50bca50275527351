package geoip

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFallbackTable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fallback.json")
	data := `[
		{"net": "203.0.113.0/24", "country": "FR", "region": "IDF", "metro": 501},
		{"net": "198.51.100.0/24", "country": "US", "region": "CA", "metro": 807}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestInit_FallsBackToJSONTable(t *testing.T) {
	g, err := Init(writeFallbackTable(t))
	require.NoError(t, err)
	require.NotNil(t, g)

	ip := net.ParseIP("203.0.113.42")
	assert.Equal(t, "FR", g.Country(ip))
	assert.Equal(t, "IDF", g.Region(ip))
	assert.Equal(t, 501, g.Metro(ip))
}

func TestInit_UnknownIPReturnsEmpty(t *testing.T) {
	g, err := Init(writeFallbackTable(t))
	require.NoError(t, err)

	ip := net.ParseIP("8.8.8.8")
	assert.Equal(t, "", g.Country(ip))
	assert.Equal(t, "", g.Region(ip))
	assert.Equal(t, 0, g.Metro(ip))
}

func TestInit_InvalidPathErrors(t *testing.T) {
	_, err := Init(filepath.Join(t.TempDir(), "does-not-exist.mmdb"))
	assert.Error(t, err)
}

func TestGeoIP_NilReceiverIsSafe(t *testing.T) {
	var g *GeoIP
	assert.Equal(t, "", g.Country(net.ParseIP("1.2.3.4")))
	assert.Equal(t, "", g.Region(net.ParseIP("1.2.3.4")))
	assert.Equal(t, 0, g.Metro(net.ParseIP("1.2.3.4")))
	assert.NoError(t, g.Close())
}

func TestGeoIP_NilIPIsSafe(t *testing.T) {
	g, err := Init(writeFallbackTable(t))
	require.NoError(t, err)
	assert.Equal(t, "", g.Country(nil))
}
